package hiring

import "time"

// Status is a state in the hiring approval chain.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingManager Status = "pending_manager"
	StatusPendingHR      Status = "pending_hr"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
)

// transitions is the approval chain. A request moves forward through
// manager then HR review; either reviewer may reject.
var transitions = map[Status][]Status{
	StatusDraft:          {StatusPendingManager},
	StatusPendingManager: {StatusPendingHR, StatusRejected},
	StatusPendingHR:      {StatusApproved, StatusRejected},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status ends the approval chain.
func Terminal(s Status) bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingManager, StatusPendingHR, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request asks to hire personnel for a camp. Requests that have not
// reached a terminal status are tracked by the SLA engine.
type Request struct {
	ID            string     `json:"id"`
	CampID        string     `json:"camp_id"`
	Position      string     `json:"position"`
	Headcount     int        `json:"headcount"`
	Justification string     `json:"justification,omitempty"`
	RequestedBy   string     `json:"requested_by"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
