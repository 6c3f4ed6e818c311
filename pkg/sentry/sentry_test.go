package sentry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}
func (t *recordingTransport) Flush(time.Duration) bool       { return true }
func (t *recordingTransport) Close()                         {}
func (t *recordingTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *recordingTransport) snapshot() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.DSN = "https://public@sentry.example.com/1"
	cfg.Tags = map[string]string{"service": "cardforge"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want error
	}{
		{"nil", nil, ErrNilConfig},
		{"no dsn", DefaultConfig(), ErrInvalidDSN},
		{"bad sample rate", &Config{DSN: "https://k@h/1", SampleRate: 2}, ErrInvalidConfig},
		{"ok", testConfig(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), tt.want)
		})
	}
}

func TestNewReporterWithoutDSN(t *testing.T) {
	r, err := NewReporter(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, NopReporter{}, r)
	assert.True(t, r.Flush(time.Millisecond))
}

func TestCaptureErrorAddsTags(t *testing.T) {
	tr := &recordingTransport{}
	c, err := newClient(testConfig(), tr)
	require.NoError(t, err)

	ctx := logger.WithRequestID(context.Background(), "req-1")
	c.CaptureError(ctx, errors.New("listener failed"), map[string]string{"event": "player.drop.completed"})
	c.CaptureError(ctx, nil, nil)

	events := tr.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "player.drop.completed", events[0].Tags["event"])
	assert.Equal(t, "req-1", events[0].Tags["request_id"])
	assert.Equal(t, "cardforge", events[0].Tags["service"])
	assert.Equal(t, Stats{EventsTotal: 1, EventsCaptured: 1}, c.Stats())
}

func TestCapturePanicAndClose(t *testing.T) {
	tr := &recordingTransport{}
	c, err := newClient(testConfig(), tr)
	require.NoError(t, err)

	c.CapturePanic("boom")
	require.Len(t, tr.snapshot(), 1)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	c.CapturePanic("after close")
	assert.Len(t, tr.snapshot(), 1)
}
