package events

import "time"

// Event is a scheduled camp activity. Descriptions are authored in
// Markdown and rendered to HTML on read.
type Event struct {
	ID            string `json:"id"`
	CampID        string `json:"camp_id"`
	Title         string `json:"title"`
	DescriptionMD string `json:"description_md"`
	// DescriptionHTML is rendered from DescriptionMD; never stored.
	DescriptionHTML string     `json:"description_html,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
