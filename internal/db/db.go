package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with campops-specific helpers.
type DB struct {
	*sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS personnel (
    id TEXT PRIMARY KEY,
    badge_no TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    trade TEXT NOT NULL DEFAULT '',
    company TEXT NOT NULL DEFAULT '',
    phone TEXT,
    email TEXT,
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active','on_leave','separated')),
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_personnel_badge ON personnel(badge_no);
CREATE INDEX IF NOT EXISTS idx_personnel_status ON personnel(status);

CREATE TABLE IF NOT EXISTS camps (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    location TEXT NOT NULL DEFAULT '',
    capacity INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    camp_id TEXT NOT NULL REFERENCES camps(id) ON DELETE CASCADE,
    number TEXT NOT NULL,
    capacity INTEGER NOT NULL DEFAULT 1,
    UNIQUE(camp_id, number)
);

CREATE TABLE IF NOT EXISTS room_assignments (
    employee_id TEXT NOT NULL PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    assigned_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assignments_room ON room_assignments(room_id);

CREATE TABLE IF NOT EXISTS transfer_requests (
    id TEXT PRIMARY KEY,
    employee_id TEXT NOT NULL,
    from_camp_id TEXT NOT NULL,
    to_camp_id TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','completed','cancelled')),
    created_at DATETIME NOT NULL,
    completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfer_requests(status);

CREATE TABLE IF NOT EXISTS assets (
    id TEXT PRIMARY KEY,
    tag TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    camp_id TEXT,
    condition TEXT NOT NULL DEFAULT 'good' CHECK(condition IN ('good','fair','poor','out_of_service')),
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assets_camp ON assets(camp_id);

CREATE TABLE IF NOT EXISTS maintenance_requests (
    id TEXT PRIMARY KEY,
    asset_id TEXT,
    camp_id TEXT NOT NULL,
    description TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low','medium','high')),
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','completed','cancelled')),
    reported_by TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_maintenance_status ON maintenance_requests(status);

CREATE TABLE IF NOT EXISTS camp_hiring_requests (
    id TEXT PRIMARY KEY,
    camp_id TEXT NOT NULL,
    position TEXT NOT NULL,
    headcount INTEGER NOT NULL DEFAULT 1,
    justification TEXT NOT NULL DEFAULT '',
    requested_by TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft','pending_manager','pending_hr','approved','rejected')),
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_hiring_status ON camp_hiring_requests(status);

CREATE TABLE IF NOT EXISTS meal_preferences (
    employee_id TEXT PRIMARY KEY,
    diet TEXT NOT NULL DEFAULT 'standard',
    allergies TEXT NOT NULL DEFAULT '',
    remarks TEXT NOT NULL DEFAULT '',
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS camp_events (
    id TEXT PRIMARY KEY,
    camp_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description_md TEXT NOT NULL DEFAULT '',
    starts_at DATETIME NOT NULL,
    ends_at DATETIME,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_camp ON camp_events(camp_id, starts_at);

CREATE TABLE IF NOT EXISTS medical_records (
    id TEXT PRIMARY KEY,
    employee_id TEXT NOT NULL UNIQUE,
    blood_group TEXT NOT NULL DEFAULT '',
    fitness_status TEXT NOT NULL DEFAULT 'fit' CHECK(fitness_status IN ('fit','fit_with_restrictions','unfit','pending')),
    fitness_expiry DATETIME,
    notes TEXT NOT NULL DEFAULT '',
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sla_policies (
    id TEXT PRIMARY KEY,
    request_type TEXT NOT NULL,
    policy_name TEXT NOT NULL,
    target_completion_hours REAL NOT NULL,
    escalation_level_1_hours REAL,
    escalation_level_2_hours REAL,
    escalation_level_1_emails TEXT NOT NULL DEFAULT '',
    escalation_level_2_emails TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    auto_send_emails INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE(request_type, policy_name)
);

CREATE INDEX IF NOT EXISTS idx_sla_policies_active ON sla_policies(request_type, is_active);

CREATE TABLE IF NOT EXISTS sla_logs (
    policy_id TEXT NOT NULL,
    request_id TEXT NOT NULL,
    request_type TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    elapsed_hours REAL NOT NULL DEFAULT 0,
    escalation_level INTEGER NOT NULL DEFAULT 0,
    is_breached INTEGER NOT NULL DEFAULT 0,
    completed_date DATETIME,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY(policy_id, request_id)
);

CREATE INDEX IF NOT EXISTS idx_sla_logs_open ON sla_logs(policy_id, completed_date);
CREATE INDEX IF NOT EXISTS idx_sla_logs_breached ON sla_logs(is_breached);

CREATE TABLE IF NOT EXISTS mail_outbox (
    id TEXT PRIMARY KEY,
    recipients TEXT NOT NULL,
    subject TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('sent','failed')),
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON mail_outbox(status);

CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL,
    actor_type TEXT NOT NULL CHECK(actor_type IN ('user','system')),
    actor_id TEXT NOT NULL,
    action TEXT NOT NULL,
    scope TEXT NOT NULL,
    scope_id TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT '',
    previous_value TEXT,
    new_value TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_scope ON audit_entries(scope, scope_id);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_entries(action);
`
