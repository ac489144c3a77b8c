// Package sms sends notification texts to a provider webhook.
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
	"unicode/utf8"
)

// MaxBodyRunes caps a text at three concatenated SMS segments.
const MaxBodyRunes = 459

// Message is one text. Reference is the notification id; providers use it
// to drop duplicate submissions.
type Message struct {
	To        string `json:"to"`
	Body      string `json:"body"`
	Reference string `json:"reference,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	ProviderID() string
}

// NewSender picks the webhook provider when a URL is configured and the
// noop sender otherwise.
func NewSender(url, token string) Sender {
	if strings.TrimSpace(url) == "" {
		return NoopSender{}
	}
	return NewWebhookSender(url, token, nil)
}

type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSender posts JSON messages to url. A nil client gets a 5s
// timeout.
func NewWebhookSender(url, token string, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookSender{url: strings.TrimSpace(url), token: strings.TrimSpace(token), client: client}
}

func (s *WebhookSender) ProviderID() string { return "sms-webhook" }

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	msg.To = strings.TrimSpace(msg.To)
	if msg.To == "" {
		return errors.New("sms recipient has no phone number")
	}
	msg.Body = truncate(strings.TrimSpace(msg.Body), MaxBodyRunes)
	if msg.Body == "" {
		return errors.New("sms body is empty")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if msg.Reference != "" {
		req.Header.Set("Idempotency-Key", msg.Reference)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sms webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// NoopSender drops every message. It is used when no provider is set up.
type NoopSender struct{}

func (NoopSender) ProviderID() string { return "sms-noop" }

func (NoopSender) Send(context.Context, Message) error { return nil }
