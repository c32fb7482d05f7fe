package events

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/campops/campops/internal/db"
)

// md renders event descriptions. GFM gets tables and strikethrough in
// announcement text.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderDescription converts an event's Markdown description to HTML.
func RenderDescription(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering event description: %w", err)
	}
	return buf.String(), nil
}

// Store provides CRUD operations for camp events.
type Store struct {
	db *db.DB
}

// NewStore creates an events store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new event.
func (s *Store) Create(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO camp_events (id, camp_id, title, description_md, starts_at, ends_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CampID, e.Title, e.DescriptionMD, e.StartsAt, nullTime(e.EndsAt), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// Get retrieves an event by ID.
func (s *Store) Get(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, camp_id, title, description_md, starts_at, ends_at, created_at, updated_at
		 FROM camp_events WHERE id = ?`, id)
	return scanEvent(row)
}

// List returns events, optionally filtered by camp, ordered by start time.
func (s *Store) List(ctx context.Context, campID string) ([]Event, error) {
	query := `SELECT id, camp_id, title, description_md, starts_at, ends_at, created_at, updated_at
		FROM camp_events`
	var args []any
	if campID != "" {
		query += ` WHERE camp_id = ?`
		args = append(args, campID)
	}
	query += ` ORDER BY starts_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update updates an event's fields.
func (s *Store) Update(ctx context.Context, e *Event) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE camp_events SET camp_id=?, title=?, description_md=?, starts_at=?, ends_at=?, updated_at=? WHERE id=?`,
		e.CampID, e.Title, e.DescriptionMD, e.StartsAt, nullTime(e.EndsAt), e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM camp_events WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (*Event, error) {
	var (
		e    Event
		ends sql.NullTime
	)
	err := sc.Scan(&e.ID, &e.CampID, &e.Title, &e.DescriptionMD,
		&e.StartsAt, &ends, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ends.Valid {
		t := ends.Time
		e.EndsAt = &t
	}
	return &e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
