package personnel

import "time"

// EmployeeStatus is an employee's employment state.
type EmployeeStatus string

const (
	StatusActive    EmployeeStatus = "active"
	StatusOnLeave   EmployeeStatus = "on_leave"
	StatusSeparated EmployeeStatus = "separated"
)

// Employee is a member of the camp workforce.
type Employee struct {
	ID        string         `json:"id"`
	BadgeNo   string         `json:"badge_no"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Trade     string         `json:"trade"`
	Company   string         `json:"company"`
	Phone     string         `json:"phone,omitempty"`
	Email     string         `json:"email,omitempty"`
	Status    EmployeeStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
