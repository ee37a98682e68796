package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSenderPostsMessage(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(WebhookConfig{URL: srv.URL, Token: "secret", Channel: "WhatsApp"})
	if err := s.Send(context.Background(), "5511987654321", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["to"] != "+5511987654321" || got["body"] != "hello" || got["channel"] != ChannelWhatsApp {
		t.Fatalf("unexpected payload %v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if s.Channel() != ChannelWhatsApp || s.ProviderID() != "whatsapp-webhook" {
		t.Fatalf("unexpected channel %q provider %q", s.Channel(), s.ProviderID())
	}
}

func TestWebhookSenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookSender(WebhookConfig{URL: srv.URL}).Send(context.Background(), "1", "x"); err == nil {
		t.Fatal("expected non-2xx to fail")
	}
	if err := NewWebhookSender(WebhookConfig{}).Send(context.Background(), "1", "x"); err == nil {
		t.Fatal("expected missing url to fail")
	}
	if err := NewWebhookSender(WebhookConfig{URL: srv.URL}).Send(context.Background(), " + ", "x"); err == nil {
		t.Fatal("expected empty recipient to fail")
	}
}

func TestNoopSenderDefaultsToSMS(t *testing.T) {
	s := NewNoopSender("")
	if s.Channel() != ChannelSMS || s.ProviderID() != "sms-noop" {
		t.Fatalf("unexpected channel %q provider %q", s.Channel(), s.ProviderID())
	}
	if err := s.Send(context.Background(), "1", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
