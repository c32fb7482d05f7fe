package maintenance

import "time"

// Condition grades an asset's physical state.
type Condition string

const (
	ConditionGood         Condition = "good"
	ConditionFair         Condition = "fair"
	ConditionPoor         Condition = "poor"
	ConditionOutOfService Condition = "out_of_service"
)

// Asset is a registered piece of camp equipment or furniture.
type Asset struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CampID    string    `json:"camp_id,omitempty"`
	Condition Condition `json:"condition"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Priority ranks how urgently a request should be handled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the lifecycle state of a maintenance request.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Request is a maintenance work order. Open requests are tracked by the
// SLA engine.
type Request struct {
	ID          string     `json:"id"`
	AssetID     string     `json:"asset_id,omitempty"`
	CampID      string     `json:"camp_id"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	ReportedBy  string     `json:"reported_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
