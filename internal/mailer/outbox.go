package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// OutboxEntry records one attempted send.
type OutboxEntry struct {
	ID         string    `json:"id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Status     string    `json:"status"` // sent | failed
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OutboxStore persists send attempts for auditing.
type OutboxStore struct {
	db *db.DB
}

// NewOutboxStore creates an OutboxStore backed by the given database.
func NewOutboxStore(database *db.DB) *OutboxStore {
	return &OutboxStore{db: database}
}

// Record inserts an outbox entry.
func (s *OutboxStore) Record(ctx context.Context, e OutboxEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mail_outbox (id, recipients, subject, body, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, strings.Join(e.Recipients, ","), e.Subject, e.Body, e.Status, e.Error, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting outbox entry: %w", err)
	}
	return nil
}

// List returns outbox entries, newest first.
func (s *OutboxStore) List(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `SELECT id, recipients, subject, body, status, error, created_at
		FROM mail_outbox ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var recipients string
		if err := rows.Scan(&e.ID, &recipients, &e.Subject, &e.Body, &e.Status, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning outbox entry: %w", err)
		}
		if recipients != "" {
			e.Recipients = strings.Split(recipients, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordingSender wraps a Sender and records every attempt in the outbox.
type RecordingSender struct {
	inner Sender
	store *OutboxStore
}

// NewRecordingSender wraps inner so each send attempt lands in the outbox.
func NewRecordingSender(inner Sender, store *OutboxStore) *RecordingSender {
	return &RecordingSender{inner: inner, store: store}
}

// Send delegates to the wrapped sender and records the outcome. Outbox
// write failures are swallowed: the caller only cares whether delivery
// succeeded.
func (s *RecordingSender) Send(ctx context.Context, recipients []string, msg Message) error {
	err := s.inner.Send(ctx, recipients, msg)

	entry := OutboxEntry{
		Recipients: recipients,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Status:     "sent",
	}
	if err != nil {
		entry.Status = "failed"
		entry.Error = err.Error()
	}
	// Record with a background-safe context so a cancelled send still
	// leaves an audit row.
	_ = s.store.Record(context.WithoutCancel(ctx), entry)

	return err
}
