// Package ledger is the durable record of ticket→developer assignments.
//
// It is the only writer of Assignment and AssignmentHistory rows. Every
// state change runs in a transaction that writes exactly one history row,
// so the audit trail can never have a gap. The central invariant — at most
// one active assignment per ticket — is enforced by the unique index on
// assignments.active_ticket, not by application-level checks, so it holds
// even when two commits race for the same ticket.
package ledger

import (
	"errors"
	"fmt"

	"github.com/zulandar/roundhouse/internal/models"
	"gorm.io/gorm"
)

// Filters narrows ListActive results. Zero values mean no filter.
type Filters struct {
	Developer string
	TicketID  uint
}

// Create inserts a new active assignment for the ticket. Returns ErrConflict
// when the ticket already has an active assignment.
func Create(db *gorm.DB, ticketID uint, assignedTo, reason, assignedBy string) (*models.Assignment, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ledger: ticket id is required: %w", ErrValidation)
	}
	if assignedTo == "" {
		return nil, fmt.Errorf("ledger: assigned_to is required: %w", ErrValidation)
	}
	if assignedBy == "" {
		assignedBy = models.AssignedByAI
	}

	active := ticketID
	a := models.Assignment{
		TicketID:           ticketID,
		AssignedTo:         assignedTo,
		AssignedBy:         assignedBy,
		OriginalAssignedTo: assignedTo,
		Reason:             reason,
		Status:             models.StatusActive,
		ActiveTicket:       &active,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("ledger: ticket %d: %w", ticketID, ErrConflict)
			}
			return fmt.Errorf("ledger: create assignment for ticket %d: %w", ticketID, err)
		}
		return appendHistory(tx, &a, nil, assignedTo, models.ActionCreated, reason)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Reassign moves an active assignment to a different developer in place.
// The assignment id and original_assigned_to are preserved.
func Reassign(db *gorm.DB, assignmentID uint, newDeveloper, reason string) (*models.Assignment, error) {
	if newDeveloper == "" {
		return nil, fmt.Errorf("ledger: new developer is required: %w", ErrValidation)
	}

	var a models.Assignment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND status = ?", assignmentID, models.StatusActive).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("ledger: active assignment %d: %w", assignmentID, ErrNotFound)
			}
			return fmt.Errorf("ledger: load assignment %d: %w", assignmentID, err)
		}

		previous := a.AssignedTo
		if err := tx.Model(&a).Update("assigned_to", newDeveloper).Error; err != nil {
			return fmt.Errorf("ledger: reassign %d: %w", assignmentID, err)
		}
		return appendHistory(tx, &a, &previous, newDeveloper, models.ActionReassigned, reason)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Remove soft-deletes an active assignment. The row is kept for audit.
func Remove(db *gorm.DB, assignmentID uint, reason string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var a models.Assignment
		if err := tx.Where("id = ? AND status = ?", assignmentID, models.StatusActive).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("ledger: active assignment %d: %w", assignmentID, ErrNotFound)
			}
			return fmt.Errorf("ledger: load assignment %d: %w", assignmentID, err)
		}

		updates := map[string]interface{}{
			"status":        models.StatusRemoved,
			"active_ticket": nil,
		}
		if err := tx.Model(&a).Updates(updates).Error; err != nil {
			return fmt.Errorf("ledger: remove %d: %w", assignmentID, err)
		}
		previous := a.AssignedTo
		return appendHistory(tx, &a, &previous, a.AssignedTo, models.ActionRemoved, reason)
	})
}

// Reject records a declined proposal. The row is created directly in
// rejected status, never occupies the active slot, and exists only for
// the audit trail.
func Reject(db *gorm.DB, ticketID uint, assignedTo, reason string) (*models.Assignment, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ledger: ticket id is required: %w", ErrValidation)
	}
	if assignedTo == "" {
		return nil, fmt.Errorf("ledger: assigned_to is required: %w", ErrValidation)
	}

	a := models.Assignment{
		TicketID:           ticketID,
		AssignedTo:         assignedTo,
		AssignedBy:         models.AssignedByAI,
		OriginalAssignedTo: assignedTo,
		Reason:             reason,
		Status:             models.StatusRejected,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("ledger: reject proposal for ticket %d: %w", ticketID, err)
		}
		return appendHistory(tx, &a, nil, assignedTo, models.ActionRejected, reason)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ResetAll transitions every active assignment to removed in one
// transaction, writing one history row per affected assignment. Returns the
// number of assignments reset. Calling it again immediately returns 0.
func ResetAll(db *gorm.DB, reason string) (int, error) {
	count := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var active []models.Assignment
		if err := tx.Where("status = ?", models.StatusActive).Find(&active).Error; err != nil {
			return fmt.Errorf("ledger: list active for reset: %w", err)
		}

		for i := range active {
			a := &active[i]
			updates := map[string]interface{}{
				"status":        models.StatusRemoved,
				"active_ticket": nil,
			}
			if err := tx.Model(a).Updates(updates).Error; err != nil {
				return fmt.Errorf("ledger: reset assignment %d: %w", a.ID, err)
			}
			previous := a.AssignedTo
			if err := appendHistory(tx, a, &previous, a.AssignedTo, models.ActionReset, reason); err != nil {
				return err
			}
		}
		count = len(active)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListActive returns active assignments matching the filters, ordered by
// creation time then id so results are stable.
func ListActive(db *gorm.DB, filters Filters) ([]models.Assignment, error) {
	q := db.Where("status = ?", models.StatusActive)
	if filters.Developer != "" {
		q = q.Where("assigned_to = ?", filters.Developer)
	}
	if filters.TicketID != 0 {
		q = q.Where("ticket_id = ?", filters.TicketID)
	}

	var out []models.Assignment
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("ledger: list active: %w", err)
	}
	return out, nil
}

// ActiveByTicket returns the single active assignment for a ticket, or
// ErrNotFound when the ticket is unassigned.
func ActiveByTicket(db *gorm.DB, ticketID uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := db.Where("ticket_id = ? AND status = ?", ticketID, models.StatusActive).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ledger: no active assignment for ticket %d: %w", ticketID, ErrNotFound)
		}
		return nil, fmt.Errorf("ledger: lookup ticket %d: %w", ticketID, err)
	}
	return &a, nil
}

// ActiveTicketIDs returns the set of ticket ids that currently have an
// active assignment. Callers recompute this on every use instead of
// patching a cached copy.
func ActiveTicketIDs(db *gorm.DB) (map[uint]bool, error) {
	var ids []uint
	if err := db.Model(&models.Assignment{}).
		Where("status = ?", models.StatusActive).
		Pluck("ticket_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("ledger: active ticket ids: %w", err)
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// History returns the full audit trail for an assignment, oldest first.
func History(db *gorm.DB, assignmentID uint) ([]models.AssignmentHistory, error) {
	var exists int64
	if err := db.Model(&models.Assignment{}).Where("id = ?", assignmentID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("ledger: check assignment %d: %w", assignmentID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("ledger: assignment %d: %w", assignmentID, ErrNotFound)
	}

	var rows []models.AssignmentHistory
	if err := db.Where("assignment_id = ?", assignmentID).
		Order("changed_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: history for %d: %w", assignmentID, err)
	}
	return rows, nil
}

// appendHistory writes one audit row inside the caller's transaction.
func appendHistory(tx *gorm.DB, a *models.Assignment, previous *string, newDeveloper, action, reason string) error {
	h := models.AssignmentHistory{
		AssignmentID:      a.ID,
		TicketID:          a.TicketID,
		PreviousDeveloper: previous,
		NewDeveloper:      newDeveloper,
		Action:            action,
		Reason:            reason,
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("ledger: append history for assignment %d: %w", a.ID, err)
	}
	return nil
}
