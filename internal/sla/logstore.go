package sla

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/campops/campops/internal/db"
)

// LogStore persists per-(policy, request) tracking records. Logs are
// created on first evaluation, updated each run, marked completed when
// the request closes, and never deleted.
type LogStore struct {
	db *db.DB
}

// NewLogStore creates a LogStore backed by the given database.
func NewLogStore(database *db.DB) *LogStore {
	return &LogStore{db: database}
}

// Get returns the log for a (policy, request) pair, or sql.ErrNoRows.
func (s *LogStore) Get(ctx context.Context, policyID, requestID string) (*Log, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT policy_id, request_id, request_type, started_at, elapsed_hours,
			escalation_level, is_breached, completed_date, created_at, updated_at
		FROM sla_logs WHERE policy_id = ? AND request_id = ?`, policyID, requestID)
	return scanLog(row)
}

// Upsert writes a log record, keyed by (policy_id, request_id). The
// update is atomic per key, and escalation level and breach flag ratchet
// inside the statement so an overlapping run can never lower them.
func (s *LogStore) Upsert(ctx context.Context, l Log) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sla_logs (
			policy_id, request_id, request_type, started_at, elapsed_hours,
			escalation_level, is_breached, completed_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(policy_id, request_id) DO UPDATE SET
			elapsed_hours = excluded.elapsed_hours,
			escalation_level = MAX(escalation_level, excluded.escalation_level),
			is_breached = MAX(is_breached, excluded.is_breached),
			updated_at = excluded.updated_at
		WHERE completed_date IS NULL`,
		l.PolicyID, l.RequestID, string(l.RequestType), l.StartedAt, l.ElapsedHours,
		l.EscalationLevel, boolInt(l.IsBreached), nullTime(l.CompletedDate),
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting sla log: %w", err)
	}
	return nil
}

// MarkCompleted sets the terminal completed_date on an open log. Elapsed
// hours, level, and breach flag are frozen as of the last evaluation.
// Already-completed logs are left untouched.
func (s *LogStore) MarkCompleted(ctx context.Context, policyID, requestID string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sla_logs SET completed_date = ?, updated_at = ?
		WHERE policy_id = ? AND request_id = ? AND completed_date IS NULL`,
		completedAt, completedAt, policyID, requestID)
	if err != nil {
		return fmt.Errorf("completing sla log: %w", err)
	}
	return nil
}

// ListOpenByPolicy returns all logs for a policy that have no terminal
// completed_date yet.
func (s *LogStore) ListOpenByPolicy(ctx context.Context, policyID string) ([]Log, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT policy_id, request_id, request_type, started_at, elapsed_hours,
			escalation_level, is_breached, completed_date, created_at, updated_at
		FROM sla_logs WHERE policy_id = ? AND completed_date IS NULL`, policyID)
	if err != nil {
		return nil, fmt.Errorf("querying open sla logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// LogFilter controls which logs List returns.
type LogFilter struct {
	RequestType RequestType
	Breached    *bool
	Open        *bool
	Limit       int
}

// List returns logs matching the filter, most recently updated first.
func (s *LogStore) List(ctx context.Context, filter LogFilter) ([]Log, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RequestType != "" {
		clauses = append(clauses, "request_type = ?")
		args = append(args, string(filter.RequestType))
	}
	if filter.Breached != nil {
		clauses = append(clauses, "is_breached = ?")
		args = append(args, boolInt(*filter.Breached))
	}
	if filter.Open != nil {
		if *filter.Open {
			clauses = append(clauses, "completed_date IS NULL")
		} else {
			clauses = append(clauses, "completed_date IS NOT NULL")
		}
	}

	query := `SELECT policy_id, request_id, request_type, started_at, elapsed_hours,
		escalation_level, is_breached, completed_date, created_at, updated_at
		FROM sla_logs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sla logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func collectLogs(rows *sql.Rows) ([]Log, error) {
	var logs []Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanLog(sc scanner) (*Log, error) {
	var (
		l         Log
		rt        string
		breached  int
		completed sql.NullTime
	)
	err := sc.Scan(&l.PolicyID, &l.RequestID, &rt, &l.StartedAt, &l.ElapsedHours,
		&l.EscalationLevel, &breached, &completed, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.RequestType = RequestType(rt)
	l.IsBreached = breached != 0
	if completed.Valid {
		t := completed.Time
		l.CompletedDate = &t
	}
	return &l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
