// Package meals tracks per-employee meal preferences.
package meals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campops/campops/internal/db"
)

// Diet is a catering plan category.
type Diet string

const (
	DietStandard   Diet = "standard"
	DietVegetarian Diet = "vegetarian"
	DietVegan      Diet = "vegan"
	DietHalal      Diet = "halal"
	DietMedical    Diet = "medical"
)

// Valid reports whether d is a known diet.
func (d Diet) Valid() bool {
	switch d {
	case DietStandard, DietVegetarian, DietVegan, DietHalal, DietMedical:
		return true
	}
	return false
}

// Preference is an employee's meal preference. One row per employee.
type Preference struct {
	EmployeeID string    `json:"employee_id"`
	Diet       Diet      `json:"diet"`
	Allergies  string    `json:"allergies,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store provides meal preference operations.
type Store struct {
	db *db.DB
}

// NewStore creates a meals store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Set upserts an employee's meal preference.
func (s *Store) Set(ctx context.Context, p *Preference) error {
	if p.Diet == "" {
		p.Diet = DietStandard
	}
	p.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_preferences (employee_id, diet, allergies, remarks, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id) DO UPDATE SET
			diet=excluded.diet,
			allergies=excluded.allergies,
			remarks=excluded.remarks,
			updated_at=excluded.updated_at`,
		p.EmployeeID, string(p.Diet), p.Allergies, p.Remarks, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("setting meal preference: %w", err)
	}
	return nil
}

// Get retrieves an employee's meal preference.
func (s *Store) Get(ctx context.Context, employeeID string) (*Preference, error) {
	p := &Preference{}
	var diet string
	err := s.db.QueryRowContext(ctx,
		`SELECT employee_id, diet, allergies, remarks, updated_at
		 FROM meal_preferences WHERE employee_id = ?`, employeeID,
	).Scan(&p.EmployeeID, &diet, &p.Allergies, &p.Remarks, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Diet = Diet(diet)
	return p, nil
}

// Delete removes an employee's meal preference.
func (s *Store) Delete(ctx context.Context, employeeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM meal_preferences WHERE employee_id = ?`, employeeID)
	if err != nil {
		return fmt.Errorf("deleting meal preference: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Counts returns the number of employees on each diet, for kitchen planning.
func (s *Store) Counts(ctx context.Context) (map[Diet]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT diet, COUNT(*) FROM meal_preferences GROUP BY diet`)
	if err != nil {
		return nil, fmt.Errorf("counting meal preferences: %w", err)
	}
	defer rows.Close()

	counts := make(map[Diet]int)
	for rows.Next() {
		var (
			diet string
			n    int
		)
		if err := rows.Scan(&diet, &n); err != nil {
			return nil, err
		}
		counts[Diet(diet)] = n
	}
	return counts, rows.Err()
}
