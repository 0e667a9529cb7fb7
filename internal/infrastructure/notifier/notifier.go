package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type WebhookNotifier struct {
	callbackURL string
	client      *resty.Client
	log         *zap.Logger
}

func NewWebhookNotifier(callbackURL string, timeout time.Duration, retries int, log *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &WebhookNotifier{
		callbackURL: callbackURL,
		client:      client,
		log:         log,
	}
}

func (n *WebhookNotifier) SendStatus(ctx context.Context, payload StatusPayload) error {
	if payload.SentAt.IsZero() {
		payload.SentAt = time.Now()
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.callbackURL)
	if err != nil {
		return fmt.Errorf("status callback: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("status callback returned %d", resp.StatusCode())
	}

	n.log.Debug("status callback sent",
		zap.String("url", n.callbackURL),
		zap.String("event", payload.Event),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
