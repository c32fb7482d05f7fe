package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionPolicyCreated         Action = "sla_policy_created"
	ActionPolicyUpdated         Action = "sla_policy_updated"
	ActionPolicyDeleted         Action = "sla_policy_deleted"
	ActionSLARunCompleted       Action = "sla_run_completed"
	ActionHiringTransition      Action = "hiring_transition"
	ActionTransferCompleted     Action = "transfer_completed"
	ActionMaintenanceCompleted  Action = "maintenance_completed"
	ActionEmployeeImported      Action = "employee_imported"
	ActionMedicalRecordModified Action = "medical_record_modified"
)

// Scope describes the level at which an action applies.
type Scope string

const (
	ScopePolicy   Scope = "policy"
	ScopeRequest  Scope = "request"
	ScopeRun      Scope = "run"
	ScopeEmployee Scope = "employee"
)

// Entry is a single audit trail record.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	ActorType     ActorType `json:"actor_type"`
	ActorID       string    `json:"actor_id"`
	Action        Action    `json:"action"`
	Scope         Scope     `json:"scope"`
	ScopeID       string    `json:"scope_id"`
	Summary       string    `json:"summary"`
	Detail        string    `json:"detail,omitempty"`
	PreviousValue string    `json:"previous_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
}
