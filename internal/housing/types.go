package housing

import "time"

// Camp is a personnel housing site.
type Camp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Room is a bed space unit inside a camp.
type Room struct {
	ID       string `json:"id"`
	CampID   string `json:"camp_id"`
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
}

// Assignment places an employee in a room. One active assignment per employee.
type Assignment struct {
	EmployeeID string    `json:"employee_id"`
	RoomID     string    `json:"room_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TransferStatus is the lifecycle state of a transfer request.
type TransferStatus string

const (
	TransferOpen      TransferStatus = "open"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// TransferRequest asks to move an employee between camps. Open transfers
// are tracked by the SLA engine.
type TransferRequest struct {
	ID          string         `json:"id"`
	EmployeeID  string         `json:"employee_id"`
	FromCampID  string         `json:"from_camp_id"`
	ToCampID    string         `json:"to_camp_id"`
	Reason      string         `json:"reason"`
	Status      TransferStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
