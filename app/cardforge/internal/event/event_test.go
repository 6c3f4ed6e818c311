package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/mq/kafka"
	"github.com/lk2023060901/cardforge/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReporter struct {
	mu     sync.Mutex
	errs   []error
	panics []any
}

func (r *countingReporter) CaptureError(_ context.Context, err error, _ map[string]string) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *countingReporter) CapturePanic(v any) {
	r.mu.Lock()
	r.panics = append(r.panics, v)
	r.mu.Unlock()
}

func (r *countingReporter) Flush(time.Duration) bool { return true }

func TestBusPublishInOrder(t *testing.T) {
	bus := NewBus(logger.NewNoop(), nil)
	var calls []string
	bus.Subscribe("x", func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.Name)
		return nil
	})
	bus.Subscribe("x", func(_ context.Context, e Event) error {
		calls = append(calls, "second")
		assert.Equal(t, 1, e.Payload["n"])
		return nil
	})
	bus.Subscribe("y", func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), "x", map[string]any{"n": 1}))
	assert.Equal(t, []string{"first:x", "second"}, calls)
	assert.Len(t, bus.Listeners("x"), 2)
	assert.Empty(t, bus.Listeners("missing"))

	require.NoError(t, bus.Publish(context.Background(), "nobody", nil))
}

func TestBusFirstErrorStops(t *testing.T) {
	bus := NewBus(logger.NewNoop(), nil)
	boom := errors.New("boom")
	called := false
	bus.Subscribe("x", func(context.Context, Event) error { return boom })
	bus.Subscribe("x", func(context.Context, Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), "x", nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)

	bus.Clear()
	assert.Empty(t, bus.Listeners("x"))
	assert.NoError(t, bus.Publish(context.Background(), "x", nil))
}

func TestIsolate(t *testing.T) {
	rep := &countingReporter{}
	bus := NewBus(logger.NewNoop(), nil)
	after := false

	bus.Subscribe("x", Isolate("failing", func(context.Context, Event) error {
		return errors.New("sink down")
	}, logger.NewNoop(), rep))
	bus.Subscribe("x", Isolate("panicking", func(context.Context, Event) error {
		panic("bad listener")
	}, logger.NewNoop(), rep))
	bus.Subscribe("x", func(context.Context, Event) error {
		after = true
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), "x", nil))
	assert.True(t, after)
	assert.Len(t, rep.errs, 1)
	assert.Equal(t, []any{"bad listener"}, rep.panics)
}

func TestAsyncDispatcher(t *testing.T) {
	d, err := NewAsyncDispatcher(AsyncConfig{PoolSize: 2}, logger.NewNoop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var seen []string
	wg.Add(3)
	listener := d.Wrap("collector", func(_ context.Context, e Event) error {
		defer wg.Done()
		mu.Lock()
		seen = append(seen, e.Name)
		mu.Unlock()
		return errors.New("ignored")
	})

	bus := NewBus(logger.NewNoop(), nil)
	bus.Subscribe("a", listener)
	bus.Subscribe("b", listener)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, "a", nil))
	require.NoError(t, bus.Publish(ctx, "b", nil))
	cancel()
	require.NoError(t, bus.Publish(ctx, "a", nil))

	wg.Wait()
	assert.ElementsMatch(t, []string{"a", "b", "a"}, seen)
	require.NoError(t, d.Close())
}

type fakeProducer struct {
	msgs []*kafka.Message
	err  error
}

func (p *fakeProducer) Publish(_ context.Context, msg *kafka.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestKafkaSink(t *testing.T) {
	prod := &fakeProducer{}
	sink := NewKafkaSink(prod, "cardforge.events")
	bus := NewBus(logger.NewNoop(), nil)
	bus.Subscribe("player.drop.completed", sink.Listener())

	require.NoError(t, bus.Publish(context.Background(), "player.drop.completed", map[string]any{
		"user_id": int64(42),
		"cards":   []string{"alpha"},
	}))
	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "cardforge.events", msg.Topic)
	assert.Equal(t, []byte("42"), msg.Key)
	assert.Equal(t, "player.drop.completed", msg.Headers["event"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "player.drop.completed", decoded.Name)
	assert.Equal(t, []any{"alpha"}, decoded.Payload["cards"])

	prod.err = errors.New("broker unavailable")
	err := bus.Publish(context.Background(), "player.drop.completed", map[string]any{})
	assert.Error(t, err)
	assert.Nil(t, prod.msgs[1].Key)
}

type recordingNotifier struct {
	notices []*notify.Notice
}

func (n *recordingNotifier) Send(_ context.Context, notice *notify.Notice) error {
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) Name() string { return "recording" }

func TestNotifySink(t *testing.T) {
	rec := &recordingNotifier{}
	listener := NewNotifySink(rec, "cardforge").Listener()

	require.NoError(t, listener(context.Background(), Event{Name: service.EventDropCompleted}))
	assert.Empty(t, rec.notices)

	require.NoError(t, listener(context.Background(), Event{
		Name: service.EventAudit,
		Payload: map[string]any{
			"id":         "a1",
			"channel":    int64(-100),
			"action":     service.ActionBan,
			"payload":    map[string]any{"user_id": int64(5), "reason": nil},
			"created_at": "2024-02-03T02:05:06Z",
		},
	}))
	require.Len(t, rec.notices, 1)
	n := rec.notices[0]
	assert.Equal(t, notify.LevelWarning, n.Level)
	assert.Equal(t, "ban", n.Title)
	assert.Equal(t, "-100", n.Channel)
	assert.Equal(t, map[string]string{"audit_id": "a1", "user_id": "5"}, n.Fields)
	assert.Equal(t, time.Date(2024, 2, 3, 2, 5, 6, 0, time.UTC), n.OccurredAt)
}
