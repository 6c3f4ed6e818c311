package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyNamespace(t *testing.T) {
	_, err := New(&Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegisterAndExpose(t *testing.T) {
	c, err := New(&Config{Namespace: "cardforge_test"})
	require.NoError(t, err)
	assert.Equal(t, "/metrics", c.Config().Path)

	drops, err := c.NewCounter("drops_total", "Total drops.", []string{"pack"})
	require.NoError(t, err)
	drops.WithLabelValues("starter").Add(3)

	_, err = c.NewCounter("drops_total", "Total drops.", []string{"pack"})
	assert.ErrorIs(t, err, ErrMetricExists)

	hist, err := c.NewHistogram("drop_seconds", "Drop latency.", nil, nil)
	require.NoError(t, err)
	hist.WithLabelValues().Observe(0.2)

	gauge, err := c.NewGauge("players", "Known players.", nil)
	require.NoError(t, err)
	gauge.WithLabelValues().Set(7)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `cardforge_test_drops_total{pack="starter"} 3`))
	assert.Contains(t, body, "cardforge_test_players 7")
	assert.Contains(t, body, "cardforge_test_drop_seconds_count 1")
}
