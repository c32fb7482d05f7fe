package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookSender POSTs notifications to a configured webhook URL as JSON.
type WebhookSender struct {
	URL    string
	client *http.Client
}

// NewWebhookSender creates a WebhookSender with a bounded HTTP client.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		URL: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// webhookPayload is the JSON body posted to the webhook.
type webhookPayload struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// Send POSTs the message to the webhook URL.
func (s *WebhookSender) Send(ctx context.Context, recipients []string, msg Message) error {
	payload, err := json.Marshal(webhookPayload{
		Recipients: recipients,
		Subject:    msg.Subject,
		Body:       msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshalling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
