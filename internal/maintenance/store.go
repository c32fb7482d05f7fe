package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
)

// Store provides CRUD operations for assets and maintenance requests.
type Store struct {
	db *db.DB
}

// NewStore creates a maintenance store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateAsset registers a new asset.
func (s *Store) CreateAsset(ctx context.Context, a *Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Condition == "" {
		a.Condition = ConditionGood
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	var campID sql.NullString
	if a.CampID != "" {
		campID = sql.NullString{String: a.CampID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (id, tag, name, category, camp_id, condition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Tag, a.Name, a.Category, campID, string(a.Condition), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset by ID.
func (s *Store) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tag, name, category, camp_id, condition, created_at, updated_at
		 FROM assets WHERE id = ?`, id)
	return scanAsset(row)
}

// ListAssets returns assets, optionally filtered by camp.
func (s *Store) ListAssets(ctx context.Context, campID string) ([]Asset, error) {
	query := `SELECT id, tag, name, category, camp_id, condition, created_at, updated_at FROM assets`
	var args []any
	if campID != "" {
		query += ` WHERE camp_id = ?`
		args = append(args, campID)
	}
	query += ` ORDER BY tag`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateAsset updates an asset's fields.
func (s *Store) UpdateAsset(ctx context.Context, a *Asset) error {
	a.UpdatedAt = time.Now().UTC()

	var campID sql.NullString
	if a.CampID != "" {
		campID = sql.NullString{String: a.CampID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET tag=?, name=?, category=?, camp_id=?, condition=?, updated_at=? WHERE id=?`,
		a.Tag, a.Name, a.Category, campID, string(a.Condition), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateRequest opens a new maintenance request.
func (s *Store) CreateRequest(ctx context.Context, r *Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	r.Status = StatusOpen
	r.CreatedAt = time.Now().UTC()

	var assetID sql.NullString
	if r.AssetID != "" {
		assetID = sql.NullString{String: r.AssetID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO maintenance_requests (id, asset_id, camp_id, description, priority, status, reported_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, assetID, r.CampID, r.Description, string(r.Priority), string(r.Status), r.ReportedBy, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating maintenance request: %w", err)
	}
	return nil
}

// GetRequest retrieves a maintenance request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, asset_id, camp_id, description, priority, status, reported_by, created_at, completed_at
		 FROM maintenance_requests WHERE id = ?`, id)
	return scanRequest(row)
}

// ListRequests returns maintenance requests, optionally filtered by status.
func (s *Store) ListRequests(ctx context.Context, status Status) ([]Request, error) {
	query := `SELECT id, asset_id, camp_id, description, priority, status, reported_by, created_at, completed_at
		FROM maintenance_requests`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance requests: %w", err)
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

// ListOpenRequests returns requests still awaiting completion.
func (s *Store) ListOpenRequests(ctx context.Context) ([]Request, error) {
	return s.ListRequests(ctx, StatusOpen)
}

// CompleteRequest closes an open request and stamps its completion time.
func (s *Store) CompleteRequest(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_requests SET status=?, completed_at=? WHERE id=? AND status=?`,
		string(StatusCompleted), now, id, string(StatusOpen),
	)
	if err != nil {
		return fmt.Errorf("completing maintenance request: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelRequest cancels an open request.
func (s *Store) CancelRequest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_requests SET status=? WHERE id=? AND status=?`,
		string(StatusCancelled), id, string(StatusOpen),
	)
	if err != nil {
		return fmt.Errorf("cancelling maintenance request: %w", err)
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

func scanAsset(sc scanner) (*Asset, error) {
	var (
		a         Asset
		campID    sql.NullString
		condition string
	)
	err := sc.Scan(&a.ID, &a.Tag, &a.Name, &a.Category, &campID, &condition, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.CampID = campID.String
	a.Condition = Condition(condition)
	return &a, nil
}

func scanRequest(sc scanner) (*Request, error) {
	var (
		r                Request
		assetID          sql.NullString
		priority, status string
		completed        sql.NullTime
	)
	err := sc.Scan(&r.ID, &assetID, &r.CampID, &r.Description, &priority, &status,
		&r.ReportedBy, &r.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	r.AssetID = assetID.String
	r.Priority = Priority(priority)
	r.Status = Status(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
