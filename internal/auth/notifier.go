package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier доставляет код пользователю. Внешний коллаборатор:
// движок аутентификации относится к нему как к best-effort.
type Notifier interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type emailMessage struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

type notification struct {
	Type    string       `json:"type"`
	Message emailMessage `json:"message"`
}

// HTTPNotifier шлёт пачку уведомлений POST'ом на внешний сервис.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

func NewHTTPNotifier(url string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *HTTPNotifier) Send(ctx context.Context, to, subject, text, html string) error {
	payload := []notification{{
		Type: "email",
		Message: emailMessage{
			To:      to,
			Name:    subject,
			Subject: subject,
			Text:    text,
			HTML:    html,
		},
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notifier: failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("to", to).Msg("notifier: unexpected response status")
		return fmt.Errorf("notifier: unexpected response status %d", resp.StatusCode)
	}

	return nil
}
