// Package sms delivers patient messages through a text gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

type Sender interface {
	Send(ctx context.Context, to string, body string) error
	// Channel is stored on the notification row ("sms" or "whatsapp").
	Channel() string
	ProviderID() string
}

type WebhookConfig struct {
	URL     string
	Token   string
	Channel string
	Timeout time.Duration
}

// WebhookSender posts {"channel", "to", "body"} to a gateway.
type WebhookSender struct {
	url     string
	token   string
	channel string
	http    *http.Client
}

func NewWebhookSender(cfg WebhookConfig) *WebhookSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &WebhookSender{
		url:     strings.TrimSpace(cfg.URL),
		token:   strings.TrimSpace(cfg.Token),
		channel: normalizeChannel(cfg.Channel),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func normalizeChannel(channel string) string {
	if strings.EqualFold(strings.TrimSpace(channel), ChannelWhatsApp) {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

func (s *WebhookSender) Channel() string { return s.channel }

func (s *WebhookSender) ProviderID() string {
	return s.channel + "-webhook"
}

// Send posts the message with the recipient in E.164 form.
func (s *WebhookSender) Send(ctx context.Context, to string, body string) error {
	if s.url == "" {
		return errors.New("sms webhook url not configured")
	}
	to = strings.TrimPrefix(strings.TrimSpace(to), "+")
	if to == "" {
		return errors.New("sms recipient is empty")
	}
	raw, err := json.Marshal(map[string]string{
		"channel": s.channel,
		"to":      "+" + to,
		"body":    body,
	})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NoopSender accepts every message. Used when no gateway is configured.
type NoopSender struct {
	channel string
}

func NewNoopSender(channel string) *NoopSender {
	return &NoopSender{channel: normalizeChannel(channel)}
}

func (s *NoopSender) Channel() string { return s.channel }

func (s *NoopSender) ProviderID() string {
	return s.channel + "-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}
