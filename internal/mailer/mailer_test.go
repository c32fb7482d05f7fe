package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/campops/campops/internal/db"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"ops@example.com",
		"camp.manager+sla@example.co.uk",
		"a_b%c@sub.domain.org",
	}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("ValidateAddress(%q) = %v, want nil", addr, err)
		}
	}

	invalid := []string{
		"",
		"not-an-address",
		"missing@tld",
		"@example.com",
		"spaces in@example.com",
	}
	for _, addr := range invalid {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%q) = nil, want error", addr)
		}
	}
}

func TestSMTPSenderSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	orig := smtpSendMail
	smtpSendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}
	t.Cleanup(func() { smtpSendMail = orig })

	s := NewSMTPSender("smtp.example.com", 587, "", "", "campops@example.com")
	err := s.Send(context.Background(), []string{"ops@example.com"}, Message{
		Subject: "SLA escalation",
		Body:    "Transfer request overdue",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "campops@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "Subject: SLA escalation") {
		t.Errorf("message missing subject: %q", string(gotMsg))
	}
}

func TestSMTPSenderSanitizesHeaders(t *testing.T) {
	var gotMsg []byte

	orig := smtpSendMail
	smtpSendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = msg
		return nil
	}
	t.Cleanup(func() { smtpSendMail = orig })

	s := NewSMTPSender("smtp.example.com", 25, "", "", "campops@example.com")
	err := s.Send(context.Background(), []string{"ops@example.com"}, Message{
		Subject: "evil\r\nBcc: attacker@example.com",
		Body:    "body",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if strings.Contains(string(gotMsg), "Bcc:") {
		t.Errorf("header injection not stripped: %q", string(gotMsg))
	}
}

func TestSMTPSenderRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 25, "", "", "campops@example.com")
	err := s.Send(context.Background(), []string{"not-an-address"}, Message{Subject: "x"})
	if err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestWebhookSenderSend(t *testing.T) {
	var got webhookPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	s := NewWebhookSender(ts.URL)
	err := s.Send(context.Background(), []string{"ops@example.com"}, Message{
		Subject: "SLA escalation",
		Body:    "details",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.Subject != "SLA escalation" {
		t.Errorf("subject = %q", got.Subject)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "ops@example.com" {
		t.Errorf("recipients = %v", got.Recipients)
	}
}

func TestWebhookSenderErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	s := NewWebhookSender(ts.URL)
	err := s.Send(context.Background(), []string{"ops@example.com"}, Message{Subject: "x"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(ctx context.Context, recipients []string, msg Message) error {
	s.calls++
	return s.err
}

func TestRecordingSender(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := NewOutboxStore(database)
	ctx := context.Background()

	// Successful send.
	ok := &stubSender{}
	rs := NewRecordingSender(ok, store)
	if err := rs.Send(ctx, []string{"a@example.com"}, Message{Subject: "ok"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Failed send still returns the error and records it.
	bad := &stubSender{err: fmt.Errorf("relay down")}
	rs = NewRecordingSender(bad, store)
	if err := rs.Send(ctx, []string{"b@example.com"}, Message{Subject: "fail"}); err == nil {
		t.Fatal("expected error from failing sender")
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 outbox entries, got %d", len(entries))
	}

	byStatus := map[string]int{}
	for _, e := range entries {
		byStatus[e.Status]++
	}
	if byStatus["sent"] != 1 || byStatus["failed"] != 1 {
		t.Errorf("statuses = %v", byStatus)
	}
	for _, e := range entries {
		if e.Status == "failed" && !strings.Contains(e.Error, "relay down") {
			t.Errorf("failed entry error = %q", e.Error)
		}
	}
}
