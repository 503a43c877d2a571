package models

import "time"

// Assignment statuses.
const (
	StatusActive   = "active"
	StatusRejected = "rejected"
	StatusRemoved  = "removed"
)

// Assignment sources.
const (
	AssignedByAI     = "ai"
	AssignedByManual = "manual"
)

// History actions.
const (
	ActionCreated    = "created"
	ActionReassigned = "reassigned"
	ActionRemoved    = "removed"
	ActionRejected   = "rejected"
	ActionReset      = "reset"
)

// Assignment binds a ticket to a developer. Rows are never deleted:
// removal and reset are status transitions so the audit trail survives.
//
// ActiveTicket mirrors TicketID while Status is "active" and is NULL
// otherwise. Its unique index is what guarantees at most one active
// assignment per ticket, on both SQLite and MySQL, without a
// check-then-insert gap.
type Assignment struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID           uint   `gorm:"not null;index" json:"ticket_id"`
	AssignedTo         string `gorm:"size:255;not null;index" json:"assigned_to"`
	AssignedBy         string `gorm:"size:16;default:ai" json:"assigned_by"`
	OriginalAssignedTo string `gorm:"size:255" json:"original_assigned_to"`
	Reason             string `gorm:"type:text" json:"reason"`
	Status             string `gorm:"size:16;default:active;index" json:"status"`
	ActiveTicket       *uint  `gorm:"uniqueIndex" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	History []AssignmentHistory `gorm:"foreignKey:AssignmentID" json:"-"`
}

// AssignmentHistory is the append-only audit log. One row is written for
// every state-changing ledger operation; rows are never updated or deleted.
type AssignmentHistory struct {
	ID                uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	AssignmentID      uint    `gorm:"not null;index" json:"assignment_id"`
	TicketID          uint    `gorm:"not null;index" json:"ticket_id"`
	PreviousDeveloper *string `gorm:"size:255" json:"previous_developer,omitempty"`
	NewDeveloper      string  `gorm:"size:255" json:"new_developer"`
	Action            string  `gorm:"size:16;not null" json:"action"`
	Reason            string  `gorm:"type:text" json:"reason"`
	ChangedAt         time.Time `gorm:"autoCreateTime" json:"changed_at"`
}
