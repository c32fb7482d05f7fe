package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// allow tests to override SMTP send
var smtpSendMail = smtp.SendMail

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, From: from}
}

// Send builds and sends one email to all recipients. The context bounds
// the attempt; smtp.SendMail itself is not cancellable, so the send runs
// in a goroutine and the call returns on cancellation with the context error.
func (s *SMTPSender) Send(ctx context.Context, recipients []string, msg Message) error {
	from := sanitizeHeader(s.From)
	if err := ValidateAddress(from); err != nil {
		return fmt.Errorf("invalid From address: %w", err)
	}

	var to []string
	for _, r := range recipients {
		addr := sanitizeHeader(r)
		if err := ValidateAddress(addr); err != nil {
			return fmt.Errorf("invalid To address: %w", err)
		}
		to = append(to, addr)
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	buf.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n\r\n")
	buf.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtpSendMail(addr, auth, from, to, buf.Bytes())
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
