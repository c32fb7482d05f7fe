package sla

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campops/campops/internal/db"
	"github.com/campops/campops/internal/mailer"
)

// ConfigError reports a policy configuration problem detected at read
// time. Affected policies are skipped for the run and reported, never
// silently repaired.
type ConfigError struct {
	RequestType RequestType `json:"request_type"`
	PolicyID    string      `json:"policy_id,omitempty"`
	Reason      string      `json:"reason"`
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("sla policy config for %s: %s", e.RequestType, e.Reason)
}

// PolicyStore provides CRUD access to SLA policies.
type PolicyStore struct {
	db *db.DB
}

// NewPolicyStore creates a PolicyStore backed by the given database.
func NewPolicyStore(database *db.DB) *PolicyStore {
	return &PolicyStore{db: database}
}

// validatePolicy enforces the write-time invariants.
func validatePolicy(p *Policy) error {
	if p.Name == "" {
		return fmt.Errorf("policy_name is required")
	}
	if !p.RequestType.Valid() {
		return fmt.Errorf("unknown request type %q", p.RequestType)
	}
	if p.TargetCompletionHours <= 0 {
		return fmt.Errorf("target_completion_hours must be positive")
	}
	if p.Level1Hours != nil && *p.Level1Hours <= 0 {
		return fmt.Errorf("escalation_level_1_hours must be positive")
	}
	if p.Level2Hours != nil && *p.Level2Hours <= 0 {
		return fmt.Errorf("escalation_level_2_hours must be positive")
	}
	if p.Level1Hours != nil && p.Level2Hours != nil && *p.Level1Hours >= *p.Level2Hours {
		return fmt.Errorf("escalation_level_1_hours must be less than escalation_level_2_hours")
	}
	return nil
}

// parseRecipients splits a comma-separated address list, dropping
// malformed addresses with a log line rather than failing the policy.
func parseRecipients(raw, policyName string, level int) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		if err := mailer.ValidateAddress(addr); err != nil {
			log.Printf("sla: policy %q level %d: skipping malformed address %q", policyName, level, addr)
			continue
		}
		out = append(out, addr)
	}
	return out
}

// Create inserts a new policy. If p.ID is empty a UUID is generated.
func (s *PolicyStore) Create(ctx context.Context, p *Policy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sla_policies (
			id, request_type, policy_name, target_completion_hours,
			escalation_level_1_hours, escalation_level_2_hours,
			escalation_level_1_emails, escalation_level_2_emails,
			is_active, auto_send_emails, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.RequestType), p.Name, p.TargetCompletionHours,
		nullFloat(p.Level1Hours), nullFloat(p.Level2Hours),
		strings.Join(p.Level1Emails, ","), strings.Join(p.Level2Emails, ","),
		boolInt(p.IsActive), boolInt(p.AutoSendEmails), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting policy: %w", err)
	}
	return nil
}

// Get retrieves a policy by ID.
func (s *PolicyStore) Get(ctx context.Context, id string) (*Policy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, request_type, policy_name, target_completion_hours,
			escalation_level_1_hours, escalation_level_2_hours,
			escalation_level_1_emails, escalation_level_2_emails,
			is_active, auto_send_emails, created_at, updated_at
		FROM sla_policies WHERE id = ?`, id)
	return scanPolicy(row)
}

// List returns all policies, active and inactive.
func (s *PolicyStore) List(ctx context.Context) ([]Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_type, policy_name, target_completion_hours,
			escalation_level_1_hours, escalation_level_2_hours,
			escalation_level_1_emails, escalation_level_2_emails,
			is_active, auto_send_emails, created_at, updated_at
		FROM sla_policies ORDER BY request_type, policy_name`)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

// Update replaces a policy's fields.
func (s *PolicyStore) Update(ctx context.Context, p *Policy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE sla_policies SET
			request_type=?, policy_name=?, target_completion_hours=?,
			escalation_level_1_hours=?, escalation_level_2_hours=?,
			escalation_level_1_emails=?, escalation_level_2_emails=?,
			is_active=?, auto_send_emails=?, updated_at=?
		WHERE id=?`,
		string(p.RequestType), p.Name, p.TargetCompletionHours,
		nullFloat(p.Level1Hours), nullFloat(p.Level2Hours),
		strings.Join(p.Level1Emails, ","), strings.Join(p.Level2Emails, ","),
		boolInt(p.IsActive), boolInt(p.AutoSendEmails), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating policy: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a policy by ID. Logs written under the policy remain.
func (s *PolicyStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sla_policies WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActive returns the active policies eligible for evaluation plus
// any configuration errors found. A request type with more than one
// active policy is ambiguous: all its policies are excluded and one
// ConfigError is reported for the type. A policy whose stored thresholds
// are out of order is likewise excluded.
func (s *PolicyStore) ListActive(ctx context.Context) ([]Policy, []ConfigError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_type, policy_name, target_completion_hours,
			escalation_level_1_hours, escalation_level_2_hours,
			escalation_level_1_emails, escalation_level_2_emails,
			is_active, auto_send_emails, created_at, updated_at
		FROM sla_policies WHERE is_active = 1 ORDER BY request_type, policy_name`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying active policies: %w", err)
	}
	defer rows.Close()

	byType := map[RequestType][]Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, nil, err
		}
		byType[p.RequestType] = append(byType[p.RequestType], *p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var (
		active  []Policy
		cfgErrs []ConfigError
	)
	for _, rt := range []RequestType{TypeTransfer, TypeMaintenance, TypeCampHiring} {
		group := byType[rt]
		switch {
		case len(group) == 0:
			continue
		case len(group) > 1:
			names := make([]string, len(group))
			for i, p := range group {
				names[i] = p.Name
			}
			cfgErrs = append(cfgErrs, ConfigError{
				RequestType: rt,
				Reason:      fmt.Sprintf("%d active policies (%s); evaluation order undefined", len(group), strings.Join(names, ", ")),
			})
			continue
		}
		p := group[0]
		if p.Level1Hours != nil && p.Level2Hours != nil && *p.Level1Hours >= *p.Level2Hours {
			cfgErrs = append(cfgErrs, ConfigError{
				RequestType: rt,
				PolicyID:    p.ID,
				Reason:      "escalation_level_1_hours >= escalation_level_2_hours",
			})
			continue
		}
		active = append(active, p)
	}
	return active, cfgErrs, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(sc scanner) (*Policy, error) {
	var (
		p                Policy
		rt               string
		l1, l2           sql.NullFloat64
		emails1, emails2 string
		active, autoSend int
	)
	err := sc.Scan(&p.ID, &rt, &p.Name, &p.TargetCompletionHours,
		&l1, &l2, &emails1, &emails2, &active, &autoSend,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.RequestType = RequestType(rt)
	if l1.Valid {
		v := l1.Float64
		p.Level1Hours = &v
	}
	if l2.Valid {
		v := l2.Float64
		p.Level2Hours = &v
	}
	p.Level1Emails = parseRecipients(emails1, p.Name, 1)
	p.Level2Emails = parseRecipients(emails2, p.Name, 2)
	p.IsActive = active != 0
	p.AutoSendEmails = autoSend != 0
	return &p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
