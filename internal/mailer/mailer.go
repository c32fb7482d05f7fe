// Package mailer delivers escalation notifications by SMTP or webhook.
package mailer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Message is the content of one notification.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a message to a list of recipients. A send failure is
// non-fatal to callers running batches; they record it and move on.
type Sender interface {
	Send(ctx context.Context, recipients []string, msg Message) error
}

// Email address validation based on a simplified RFC 5322 pattern.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateAddress checks that an email address is well formed.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("email address cannot be empty")
	}
	if !emailRegex.MatchString(addr) {
		return fmt.Errorf("invalid email address format: %s", addr)
	}
	return nil
}

// sanitizeHeader removes CRLF characters that could be used for header injection.
func sanitizeHeader(input string) string {
	sanitized := strings.ReplaceAll(input, "\r", "")
	sanitized = strings.ReplaceAll(sanitized, "\n", "")
	return strings.TrimSpace(sanitized)
}

// NopSender discards all messages. Used when mail delivery is disabled.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, recipients []string, msg Message) error {
	return nil
}
