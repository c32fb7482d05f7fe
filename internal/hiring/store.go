package hiring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// ErrBadTransition is returned when a requested status change is not
// allowed by the approval chain.
type ErrBadTransition struct {
	From, To Status
}

func (e ErrBadTransition) Error() string {
	return fmt.Sprintf("cannot transition hiring request from %s to %s", e.From, e.To)
}

// Store provides CRUD and workflow operations for hiring requests.
type Store struct {
	db *db.DB
}

// NewStore creates a hiring store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new hiring request in draft status.
func (s *Store) Create(ctx context.Context, r *Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Headcount <= 0 {
		r.Headcount = 1
	}
	r.Status = StatusDraft
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO camp_hiring_requests (id, camp_id, position, headcount, justification, requested_by, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CampID, r.Position, r.Headcount, r.Justification, r.RequestedBy, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating hiring request: %w", err)
	}
	return nil
}

// Get retrieves a hiring request by ID.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, camp_id, position, headcount, justification, requested_by, status, created_at, updated_at, completed_at
		 FROM camp_hiring_requests WHERE id = ?`, id)
	return scanRequest(row)
}

// List returns hiring requests, optionally filtered by status.
func (s *Store) List(ctx context.Context, status Status) ([]Request, error) {
	query := `SELECT id, camp_id, position, headcount, justification, requested_by, status, created_at, updated_at, completed_at
		FROM camp_hiring_requests`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing hiring requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// ListOpen returns hiring requests that have not reached a terminal status.
func (s *Store) ListOpen(ctx context.Context) ([]Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, camp_id, position, headcount, justification, requested_by, status, created_at, updated_at, completed_at
		 FROM camp_hiring_requests WHERE status NOT IN (?, ?) ORDER BY created_at`,
		string(StatusApproved), string(StatusRejected))
	if err != nil {
		return nil, fmt.Errorf("listing open hiring requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// Transition advances a hiring request along the approval chain. Terminal
// statuses stamp completed_at. Returns the updated request.
func (s *Store) Transition(ctx context.Context, id string, to Status) (*Request, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, to) {
		return nil, ErrBadTransition{From: r.Status, To: to}
	}

	now := time.Now().UTC()
	var completed sql.NullTime
	if Terminal(to) {
		completed = sql.NullTime{Time: now, Valid: true}
	}

	// Guard on the current status so concurrent reviewers cannot both win.
	res, err := s.db.ExecContext(ctx,
		`UPDATE camp_hiring_requests SET status=?, updated_at=?, completed_at=? WHERE id=? AND status=?`,
		string(to), now, completed, id, string(r.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("transitioning hiring request: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, sql.ErrNoRows
	}

	r.Status = to
	r.UpdatedAt = now
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return r, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(sc scanner) (*Request, error) {
	var (
		r         Request
		status    string
		completed sql.NullTime
	)
	err := sc.Scan(&r.ID, &r.CampID, &r.Position, &r.Headcount, &r.Justification,
		&r.RequestedBy, &status, &r.CreatedAt, &r.UpdatedAt, &completed)
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
