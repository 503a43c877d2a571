package models

import "time"

// Ticket priorities. Empty string means unset.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Ticket is a unit of work to be assigned. IDs come from the ingestion
// source (CSV or GitHub), so the primary key is not auto-incremented.
// Whether a ticket is assigned is derived from the assignments table,
// never stored here.
type Ticket struct {
	ID            uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title         string     `gorm:"size:500" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	StoryPoints   int        `json:"story_points"`
	RequiredSkill string     `gorm:"size:255;index" json:"required_skill"`
	Priority      string     `gorm:"size:16" json:"priority"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
