package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	MsgType   string         `json:"msg_type"`
	Content   map[string]any `json:"content"`
	Timestamp string         `json:"timestamp"`
	Sign      string         `json:"sign"`
}

func newWebhook(t *testing.T, respond string) (*httptest.Server, chan captured) {
	t.Helper()
	ch := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body captured
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		ch <- body
		_, _ = w.Write([]byte(respond))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"empty", Config{}, false},
		{"bad scheme", Config{WebhookURL: "ftp://x"}, false},
		{"ok", Config{WebhookURL: "https://open.feishu.cn/hook/x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, 5*time.Second, tt.cfg.Timeout)
				return
			}
			assert.ErrorIs(t, err, notify.ErrInvalidConfig)
		})
	}
	assert.False(t, (*Config)(nil).Enabled())
}

func TestAdapterSend(t *testing.T) {
	srv, ch := newWebhook(t, `{"code":0,"msg":"ok"}`)
	a, err := NewAdapter(&Config{WebhookURL: srv.URL, Secret: "s3cret"})
	require.NoError(t, err)
	a.client.now = func() time.Time { return time.Unix(1700000000, 0) }

	err = a.Send(context.Background(), &notify.Notice{
		Level:   notify.LevelWarning,
		Source:  "cardforge",
		Title:   "ban",
		Channel: "-100",
		Fields:  map[string]string{"user_id": "5", "reason": "spam"},
	})
	require.NoError(t, err)

	body := <-ch
	assert.Equal(t, "post", body.MsgType)
	assert.Equal(t, "1700000000", body.Timestamp)
	assert.Equal(t, sign(1700000000, "s3cret"), body.Sign)

	post := body.Content["post"].(map[string]any)["zh_cn"].(map[string]any)
	assert.Equal(t, "🟡 cardforge: ban", post["title"])
	lines := post["content"].([]any)
	require.Len(t, lines, 3)
	first := lines[1].([]any)[0].(map[string]any)
	assert.Equal(t, "• reason: spam", first["text"])
}

func TestAdapterSendAPIError(t *testing.T) {
	srv, _ := newWebhook(t, `{"code":19021,"msg":"sign match fail"}`)
	a, err := NewAdapter(&Config{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = a.Send(context.Background(), &notify.Notice{Title: "x"})
	assert.ErrorIs(t, err, ErrAPIError)
}

func TestMulti(t *testing.T) {
	assert.ErrorIs(t, notify.Multi{}.Send(context.Background(), &notify.Notice{}), notify.ErrNoNotifiers)

	srv, _ := newWebhook(t, `not json`)
	a, err := NewAdapter(&Config{WebhookURL: srv.URL})
	require.NoError(t, err)
	err = notify.Multi{a}.Send(context.Background(), &notify.Notice{Title: "x"})
	assert.ErrorIs(t, err, notify.ErrSendFailed)
	assert.ErrorIs(t, err, ErrResponseInvalid)
}
