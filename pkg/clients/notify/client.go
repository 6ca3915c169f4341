// Package notify posts plain-text digests to a chat webhook (Slack, Mattermost,
// Google Chat and similar incoming-webhook endpoints accept {"text": ...}).
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/costquote/internal/config"
)

// Notifier delivers a message to the back-office channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WebhookClient is a resty-backed implementation of Notifier.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.NotifyConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &WebhookClient{
		httpClient: restyClient,
		url:        strings.TrimSpace(cfg.WebhookURL),
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Notify posts text to the webhook.
func (c *WebhookClient) Notify(ctx context.Context, text string) error {
	if c.url == "" {
		return errors.New("notify webhook url is not configured")
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(webhookPayload{Text: text}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("notify webhook error: code=%d, body=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return nil
}
