package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devforum/internal/notify"
)

// Mailgun manages mailing list memberships through the Mailgun HTTP API.
type Mailgun struct {
	apiBase    string
	apiKey     string
	httpClient *http.Client
}

func NewMailgun(apiBase, apiKey string) *Mailgun {
	return &Mailgun{
		apiBase:    strings.TrimRight(apiBase, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Subscribe adds or updates address on list.
func (m *Mailgun) Subscribe(ctx context.Context, sub notify.Subscription) error {
	if strings.TrimSpace(m.apiKey) == "" {
		return errors.New("mailgun api key not configured")
	}
	form := url.Values{}
	form.Set("address", sub.Address)
	form.Set("subscribed", "yes")
	form.Set("upsert", "yes")
	if sub.Name != "" {
		form.Set("name", sub.Name)
	}

	endpoint := fmt.Sprintf("%s/lists/%s/members", m.apiBase, url.PathEscape(sub.List))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("mailgun create request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("mailgun http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// SubscribeHandler adapts Mailgun to the KindSubscribe handler.
func SubscribeHandler(m *Mailgun) notify.Handler {
	return notify.HandlerFunc(func(ctx context.Context, msg notify.Message) error {
		if msg.Subscribe == nil {
			return errors.New("subscribe payload missing")
		}
		return m.Subscribe(ctx, *msg.Subscribe)
	})
}
