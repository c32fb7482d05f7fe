// Package sla implements the escalation engine: policy-driven monitoring
// of open requests, tiered escalation to configured contacts, and breach
// logging.
package sla

import "time"

// RequestType identifies a workflow governed by an SLA policy.
type RequestType string

const (
	TypeTransfer    RequestType = "transfer_request"
	TypeMaintenance RequestType = "maintenance_request"
	TypeCampHiring  RequestType = "camp_hiring_request"
)

// knownRequestTypes is the closed set accepted at the policy boundary.
var knownRequestTypes = map[RequestType]bool{
	TypeTransfer:    true,
	TypeMaintenance: true,
	TypeCampHiring:  true,
}

// Valid reports whether rt is a known request type.
func (rt RequestType) Valid() bool { return knownRequestTypes[rt] }

// Policy defines SLA thresholds and escalation recipients for one
// request type. Policies are immutable during a check run.
type Policy struct {
	ID                    string      `json:"id"`
	RequestType           RequestType `json:"request_type"`
	Name                  string      `json:"policy_name"`
	TargetCompletionHours float64     `json:"target_completion_hours"`
	Level1Hours           *float64    `json:"escalation_level_1_hours,omitempty"`
	Level2Hours           *float64    `json:"escalation_level_2_hours,omitempty"`
	Level1Emails          []string    `json:"escalation_level_1_emails"`
	Level2Emails          []string    `json:"escalation_level_2_emails"`
	IsActive              bool        `json:"is_active"`
	AutoSendEmails        bool        `json:"auto_send_emails"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// recipientsFor returns the configured recipients for an escalation level.
func (p Policy) recipientsFor(level int) []string {
	switch level {
	case 1:
		return p.Level1Emails
	case 2:
		return p.Level2Emails
	}
	return nil
}

// TrackedRequest is the engine's view of a domain record governed by a
// policy: identity, type, and creation time. Reference is a human label
// (badge number, asset tag) carried into notifications.
type TrackedRequest struct {
	ID          string      `json:"id"`
	RequestType RequestType `json:"request_type"`
	CreatedAt   time.Time   `json:"created_at"`
	Reference   string      `json:"reference,omitempty"`
}

// Log is the engine's own per-(policy, request) state. Escalation level
// and the breach flag are ratchets: they never decrease across runs.
type Log struct {
	PolicyID        string      `json:"policy_id"`
	RequestID       string      `json:"request_id"`
	RequestType     RequestType `json:"request_type"`
	StartedAt       time.Time   `json:"started_at"`
	ElapsedHours    float64     `json:"elapsed_hours"`
	EscalationLevel int         `json:"escalation_level"`
	IsBreached      bool        `json:"is_breached"`
	CompletedDate   *time.Time  `json:"completed_date,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// DueNotification is an escalation level transition that occurred in the
// current evaluation and has recipients configured.
type DueNotification struct {
	Level      int      `json:"level"`
	Recipients []string `json:"recipients"`
}

// Summary is the outcome of one check run.
type Summary struct {
	Checked   int `json:"checked"`
	Escalated int `json:"escalated"`
	Breached  int `json:"breached"`
}

// ErrorKind classifies run errors per the isolation level they apply to.
type ErrorKind string

const (
	ErrorConfig  ErrorKind = "config"
	ErrorSource  ErrorKind = "source"
	ErrorSend    ErrorKind = "send"
	ErrorPersist ErrorKind = "persist"
)

// RunError records one non-fatal failure during a check run.
type RunError struct {
	Kind        ErrorKind   `json:"kind"`
	RequestType RequestType `json:"request_type,omitempty"`
	PolicyID    string      `json:"policy_id,omitempty"`
	RequestID   string      `json:"request_id,omitempty"`
	Message     string      `json:"message"`
}

// RunReport is the full result of one check run: the summary plus
// everything an operator needs to distinguish silence from failure.
type RunReport struct {
	Summary
	Completed  int        `json:"completed"`
	Errors     []RunError `json:"errors,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
