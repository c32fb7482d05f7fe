package personnel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// Store provides CRUD operations for employees.
type Store struct {
	db *db.DB
}

// NewStore creates a personnel store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new employee.
func (s *Store) Create(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personnel (id, badge_no, first_name, last_name, trade, company, phone, email, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BadgeNo, e.FirstName, e.LastName, e.Trade, e.Company, e.Phone, e.Email, string(e.Status), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating employee: %w", err)
	}
	return nil
}

// Upsert inserts an employee or updates the existing row with the same
// badge number. Used by the CSV roster import.
func (s *Store) Upsert(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personnel (id, badge_no, first_name, last_name, trade, company, phone, email, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(badge_no) DO UPDATE SET
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			trade=excluded.trade,
			company=excluded.company,
			phone=excluded.phone,
			email=excluded.email,
			status=excluded.status,
			updated_at=excluded.updated_at`,
		e.ID, e.BadgeNo, e.FirstName, e.LastName, e.Trade, e.Company, e.Phone, e.Email, string(e.Status), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting employee: %w", err)
	}
	return nil
}

// Get retrieves an employee by ID.
func (s *Store) Get(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, badge_no, first_name, last_name, trade, company, phone, email, status, created_at, updated_at
		 FROM personnel WHERE id = ?`, id)
	return scanEmployee(row)
}

// GetByBadge retrieves an employee by badge number.
func (s *Store) GetByBadge(ctx context.Context, badgeNo string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, badge_no, first_name, last_name, trade, company, phone, email, status, created_at, updated_at
		 FROM personnel WHERE badge_no = ?`, badgeNo)
	return scanEmployee(row)
}

// List returns employees, optionally filtered by status and company.
func (s *Store) List(ctx context.Context, status EmployeeStatus, company string) ([]Employee, error) {
	query := `SELECT id, badge_no, first_name, last_name, trade, company, phone, email, status, created_at, updated_at
		FROM personnel`
	var (
		clauses []string
		args    []any
	)
	if status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, string(status))
	}
	if company != "" {
		clauses = append(clauses, `company = ?`)
		args = append(args, company)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// Update updates an employee's fields.
func (s *Store) Update(ctx context.Context, e *Employee) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE personnel SET badge_no=?, first_name=?, last_name=?, trade=?, company=?, phone=?, email=?, status=?, updated_at=?
		 WHERE id=?`,
		e.BadgeNo, e.FirstName, e.LastName, e.Trade, e.Company, e.Phone, e.Email, string(e.Status), e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating employee: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an employee.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM personnel WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
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

func scanEmployee(sc scanner) (*Employee, error) {
	var (
		e      Employee
		status string
	)
	err := sc.Scan(&e.ID, &e.BadgeNo, &e.FirstName, &e.LastName, &e.Trade,
		&e.Company, &e.Phone, &e.Email, &status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = EmployeeStatus(status)
	return &e, nil
}
