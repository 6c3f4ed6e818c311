package feishu

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lk2023060901/cardforge/pkg/config"
)

// Client 飞书 Webhook 客户端
type Client struct {
	config *Config
	http   *http.Client
	now    func() time.Time
}

// NewClient 创建客户端
func NewClient(cfg *Config) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: merged,
		http:   &http.Client{Timeout: merged.Timeout},
		now:    time.Now,
	}, nil
}

// Send 发送消息，飞书返回非 0 code 时视为失败
func (c *Client) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"msg_type": msg.Type(),
		"content":  msg.Content(),
	}
	if c.config.Secret != "" {
		ts := c.now().Unix()
		payload["timestamp"] = strconv.FormatInt(ts, 10)
		payload["sign"] = sign(ts, c.config.Secret)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrResponseInvalid, resp.StatusCode, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("%w: %s (code=%d)", ErrAPIError, result.Msg, result.Code)
	}
	return nil
}

// sign 飞书签名：以 "timestamp\nsecret" 为 key 对空串做 HmacSHA256
func sign(timestamp int64, secret string) string {
	h := hmac.New(sha256.New, []byte(fmt.Sprintf("%d\n%s", timestamp, secret)))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
