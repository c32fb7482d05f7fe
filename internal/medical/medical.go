// Package medical tracks employee fitness-to-work records.
package medical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// FitnessStatus is an employee's fitness-to-work classification.
type FitnessStatus string

const (
	FitnessFit               FitnessStatus = "fit"
	FitnessFitRestricted     FitnessStatus = "fit_with_restrictions"
	FitnessUnfit             FitnessStatus = "unfit"
	FitnessPendingAssessment FitnessStatus = "pending"
)

// Valid reports whether f is a known fitness status.
func (f FitnessStatus) Valid() bool {
	switch f {
	case FitnessFit, FitnessFitRestricted, FitnessUnfit, FitnessPendingAssessment:
		return true
	}
	return false
}

// Record is an employee's medical record. One row per employee.
type Record struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employee_id"`
	BloodGroup    string        `json:"blood_group,omitempty"`
	FitnessStatus FitnessStatus `json:"fitness_status"`
	FitnessExpiry *time.Time    `json:"fitness_expiry,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Store provides medical record operations.
type Store struct {
	db *db.DB
}

// NewStore creates a medical store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Set upserts an employee's medical record.
func (s *Store) Set(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FitnessStatus == "" {
		rec.FitnessStatus = FitnessPendingAssessment
	}
	rec.UpdatedAt = time.Now().UTC()

	var expiry sql.NullTime
	if rec.FitnessExpiry != nil {
		expiry = sql.NullTime{Time: *rec.FitnessExpiry, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO medical_records (id, employee_id, blood_group, fitness_status, fitness_expiry, notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id) DO UPDATE SET
			blood_group=excluded.blood_group,
			fitness_status=excluded.fitness_status,
			fitness_expiry=excluded.fitness_expiry,
			notes=excluded.notes,
			updated_at=excluded.updated_at`,
		rec.ID, rec.EmployeeID, rec.BloodGroup, string(rec.FitnessStatus), expiry, rec.Notes, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("setting medical record: %w", err)
	}
	return nil
}

// Get retrieves an employee's medical record.
func (s *Store) Get(ctx context.Context, employeeID string) (*Record, error) {
	var (
		rec    Record
		status string
		expiry sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, employee_id, blood_group, fitness_status, fitness_expiry, notes, updated_at
		 FROM medical_records WHERE employee_id = ?`, employeeID,
	).Scan(&rec.ID, &rec.EmployeeID, &rec.BloodGroup, &status, &expiry, &rec.Notes, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.FitnessStatus = FitnessStatus(status)
	if expiry.Valid {
		t := expiry.Time
		rec.FitnessExpiry = &t
	}
	return &rec, nil
}

// ListExpiring returns records whose fitness certification expires before
// the given cutoff, soonest first.
func (s *Store) ListExpiring(ctx context.Context, cutoff time.Time) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, blood_group, fitness_status, fitness_expiry, notes, updated_at
		 FROM medical_records
		 WHERE fitness_expiry IS NOT NULL AND fitness_expiry < ?
		 ORDER BY fitness_expiry`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing expiring medical records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec    Record
			status string
			expiry sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.BloodGroup, &status, &expiry, &rec.Notes, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.FitnessStatus = FitnessStatus(status)
		if expiry.Valid {
			t := expiry.Time
			rec.FitnessExpiry = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
