package housing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// Store provides CRUD operations for camps, rooms, assignments, and
// transfer requests.
type Store struct {
	db *db.DB
}

// NewStore creates a housing store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateCamp inserts a new camp.
func (s *Store) CreateCamp(ctx context.Context, c *Camp) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO camps (id, name, location, capacity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Location, c.Capacity, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating camp: %w", err)
	}
	return nil
}

// GetCamp retrieves a camp by ID.
func (s *Store) GetCamp(ctx context.Context, id string) (*Camp, error) {
	c := &Camp{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at
		 FROM camps WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.Capacity, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting camp: %w", err)
	}
	return c, nil
}

// ListCamps returns all camps ordered by name.
func (s *Store) ListCamps(ctx context.Context) ([]Camp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at
		 FROM camps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing camps: %w", err)
	}
	defer rows.Close()

	var camps []Camp
	for rows.Next() {
		var c Camp
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Capacity, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning camp: %w", err)
		}
		camps = append(camps, c)
	}
	return camps, rows.Err()
}

// UpdateCamp updates a camp's fields.
func (s *Store) UpdateCamp(ctx context.Context, c *Camp) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE camps SET name=?, location=?, capacity=?, updated_at=? WHERE id=?`,
		c.Name, c.Location, c.Capacity, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating camp: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCamp removes a camp (cascades to rooms).
func (s *Store) DeleteCamp(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM camps WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting camp: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateRoom inserts a room into a camp.
func (s *Store) CreateRoom(ctx context.Context, r *Room) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Capacity <= 0 {
		r.Capacity = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, camp_id, number, capacity) VALUES (?, ?, ?, ?)`,
		r.ID, r.CampID, r.Number, r.Capacity,
	)
	if err != nil {
		return fmt.Errorf("creating room: %w", err)
	}
	return nil
}

// ListRooms returns all rooms of a camp.
func (s *Store) ListRooms(ctx context.Context, campID string) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, camp_id, number, capacity FROM rooms WHERE camp_id=? ORDER BY number`, campID)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.CampID, &r.Number, &r.Capacity); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// Assign places an employee in a room, replacing any previous assignment.
// Fails when the room is already at capacity.
func (s *Store) Assign(ctx context.Context, employeeID, roomID string) error {
	var capacity, occupied int
	err := s.db.QueryRowContext(ctx,
		`SELECT capacity,
			(SELECT COUNT(*) FROM room_assignments WHERE room_id = rooms.id AND employee_id != ?)
		 FROM rooms WHERE id = ?`, employeeID, roomID,
	).Scan(&capacity, &occupied)
	if err != nil {
		return fmt.Errorf("checking room capacity: %w", err)
	}
	if occupied >= capacity {
		return fmt.Errorf("room %s is at capacity (%d)", roomID, capacity)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO room_assignments (employee_id, room_id, assigned_at) VALUES (?, ?, ?)
		 ON CONFLICT(employee_id) DO UPDATE SET room_id=excluded.room_id, assigned_at=excluded.assigned_at`,
		employeeID, roomID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("assigning room: %w", err)
	}
	return nil
}

// Unassign removes an employee's room assignment.
func (s *Store) Unassign(ctx context.Context, employeeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM room_assignments WHERE employee_id=?`, employeeID)
	if err != nil {
		return fmt.Errorf("unassigning room: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAssignments returns all assignments in a room.
func (s *Store) ListAssignments(ctx context.Context, roomID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, room_id, assigned_at FROM room_assignments
		 WHERE room_id=? ORDER BY employee_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.EmployeeID, &a.RoomID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// CreateTransfer opens a new transfer request.
func (s *Store) CreateTransfer(ctx context.Context, t *TransferRequest) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = TransferOpen
	t.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfer_requests (id, employee_id, from_camp_id, to_camp_id, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.EmployeeID, t.FromCampID, t.ToCampID, t.Reason, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating transfer request: %w", err)
	}
	return nil
}

// GetTransfer retrieves a transfer request by ID.
func (s *Store) GetTransfer(ctx context.Context, id string) (*TransferRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, employee_id, from_camp_id, to_camp_id, reason, status, created_at, completed_at
		 FROM transfer_requests WHERE id = ?`, id)
	return scanTransfer(row)
}

// ListTransfers returns transfer requests, optionally filtered by status.
func (s *Store) ListTransfers(ctx context.Context, status TransferStatus) ([]TransferRequest, error) {
	query := `SELECT id, employee_id, from_camp_id, to_camp_id, reason, status, created_at, completed_at
		FROM transfer_requests`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfer requests: %w", err)
	}
	defer rows.Close()

	var transfers []TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// ListOpenTransfers returns transfer requests still awaiting completion.
func (s *Store) ListOpenTransfers(ctx context.Context) ([]TransferRequest, error) {
	return s.ListTransfers(ctx, TransferOpen)
}

// CompleteTransfer closes an open transfer and stamps its completion time.
func (s *Store) CompleteTransfer(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE transfer_requests SET status=?, completed_at=? WHERE id=? AND status=?`,
		string(TransferCompleted), now, id, string(TransferOpen),
	)
	if err != nil {
		return fmt.Errorf("completing transfer request: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelTransfer cancels an open transfer.
func (s *Store) CancelTransfer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transfer_requests SET status=? WHERE id=? AND status=?`,
		string(TransferCancelled), id, string(TransferOpen),
	)
	if err != nil {
		return fmt.Errorf("cancelling transfer request: %w", err)
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

func scanTransfer(sc scanner) (*TransferRequest, error) {
	var (
		t         TransferRequest
		status    string
		completed sql.NullTime
	)
	err := sc.Scan(&t.ID, &t.EmployeeID, &t.FromCampID, &t.ToCampID,
		&t.Reason, &status, &t.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	t.Status = TransferStatus(status)
	if completed.Valid {
		ts := completed.Time
		t.CompletedAt = &ts
	}
	return &t, nil
}
