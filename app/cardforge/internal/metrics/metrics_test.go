package metrics

import (
	"errors"
	"testing"

	"github.com/lk2023060901/cardforge/pkg/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newMetrics(t *testing.T) *CardMetrics {
	t.Helper()
	c, err := prometheus.New(&prometheus.Config{Namespace: "cardforge_test"})
	require.NoError(t, err)
	m, err := New(c)
	require.NoError(t, err)
	return m
}

func TestRecorders(t *testing.T) {
	m := newMetrics(t)

	m.RecordDrop("starter", ResultOK, 0.01)
	m.RecordDrop("starter", ResultCooldown, 0.001)
	m.RecordCard("rare", true)
	m.RecordAdmin("ban")
	m.RecordEvent("player.drop.completed", errors.New("boom"))
	m.RecordStoreOp("sqlite", "save", nil, 0.002)
	m.ObserveHTTP("/api/v1/drops", "POST", "200", 0.02)
	m.ObserveLog(zapcore.WarnLevel)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DropsTotal.WithLabelValues("starter", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DropsTotal.WithLabelValues("starter", ResultCooldown)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CardsDrawn.WithLabelValues("rare", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminActions.WithLabelValues("ban")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("player.drop.completed", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("sqlite", "save", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/drops", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogEntries.WithLabelValues("warn")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *CardMetrics
	assert.NotPanics(t, func() {
		m.RecordDrop("p", ResultOK, 1)
		m.RecordCard("common", false)
		m.RecordAdmin("ban")
		m.RecordEvent("e", nil)
		m.RecordStoreOp("memory", "save", nil, 0)
		m.ObserveHTTP("/", "GET", "200", 0)
		m.ObserveLog(zapcore.InfoLevel)
	})
}
