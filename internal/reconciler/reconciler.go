// Package reconciler sequences the multi-step workflows that touch both the
// roster and the ledger: proposal validation, batch commit with per-item
// conflict recovery, reassignment, removal, and full reset. It owns no data
// of its own.
package reconciler

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/roundhouse/internal/ledger"
	"github.com/zulandar/roundhouse/internal/models"
	"github.com/zulandar/roundhouse/internal/roster"
	"gorm.io/gorm"
)

// Proposal is a candidate (ticket, developer, reason) triple, not yet durable.
type Proposal struct {
	TicketID   uint   `json:"ticket_id"`
	AssignedTo string `json:"assigned_to"`
	Reason     string `json:"reason"`
}

// DroppedProposal records a proposal that was excluded from a batch, with a
// human-readable cause. Dropping is a warning, never a batch failure: the
// roster may legitimately have changed since the proposal was generated.
type DroppedProposal struct {
	TicketID uint   `json:"ticket_id"`
	Cause    string `json:"cause"`
}

// ConflictItem records an approved proposal that lost a commit race.
type ConflictItem struct {
	TicketID   uint   `json:"ticket_id"`
	AssignedTo string `json:"assigned_to"`
	Cause      string `json:"cause"`
}

// CommitResult is the outcome of a batch commit. Partial success is normal:
// conflicts and validation failures are reported per item, never abort the
// rest of the batch.
type CommitResult struct {
	Created   []models.Assignment `json:"created"`
	Rejected  []models.Assignment `json:"rejected"`
	Conflicts []ConflictItem      `json:"conflicts"`
	Invalid   []DroppedProposal   `json:"invalid"`
	Total     int                 `json:"total"`
}

// PrepareProposals validates a proposal batch against the input ticket set
// and the ledger. Proposals for tickets outside the set, for tickets that
// already have an active assignment, or naming an unknown developer are
// dropped with a cause. Nothing is written.
func PrepareProposals(db *gorm.DB, tickets []models.Ticket, proposals []Proposal) ([]Proposal, []DroppedProposal, error) {
	inSet := make(map[uint]bool, len(tickets))
	for _, t := range tickets {
		inSet[t.ID] = true
	}

	assigned, err := ledger.ActiveTicketIDs(db)
	if err != nil {
		return nil, nil, err
	}

	var valid []Proposal
	var dropped []DroppedProposal
	for _, p := range proposals {
		switch {
		case !inSet[p.TicketID]:
			dropped = append(dropped, DroppedProposal{TicketID: p.TicketID, Cause: "ticket not in this batch"})
		case assigned[p.TicketID]:
			dropped = append(dropped, DroppedProposal{TicketID: p.TicketID, Cause: "ticket already has an active assignment"})
		case p.AssignedTo == "":
			dropped = append(dropped, DroppedProposal{TicketID: p.TicketID, Cause: "no developer proposed"})
		default:
			dev, err := roster.DeveloperByName(db, p.AssignedTo)
			if err != nil {
				return nil, nil, err
			}
			if dev == nil {
				dropped = append(dropped, DroppedProposal{TicketID: p.TicketID, Cause: fmt.Sprintf("unknown developer %q", p.AssignedTo)})
				continue
			}
			valid = append(valid, p)
		}
	}

	for _, d := range dropped {
		log.Printf("reconciler: dropped proposal for ticket %d: %s", d.TicketID, d.Cause)
	}
	return valid, dropped, nil
}

// Commit turns human-partitioned proposal lists into durable ledger state.
// Approved items become active assignments; a ConflictError on one item is
// recorded and the batch continues, because losing the rest of a good batch
// over one race is worse than a partial commit. Rejected items are recorded
// in rejected status for audit.
func Commit(db *gorm.DB, approved, rejected []Proposal) (*CommitResult, error) {
	result := &CommitResult{Total: len(approved) + len(rejected)}

	for _, p := range approved {
		if err := validateProposal(db, p); err != nil {
			result.Invalid = append(result.Invalid, DroppedProposal{TicketID: p.TicketID, Cause: err.Error()})
			continue
		}

		a, err := ledger.Create(db, p.TicketID, p.AssignedTo, p.Reason, models.AssignedByAI)
		if err != nil {
			if errors.Is(err, ledger.ErrConflict) {
				log.Printf("reconciler: ticket %d assigned concurrently, skipping", p.TicketID)
				result.Conflicts = append(result.Conflicts, ConflictItem{
					TicketID:   p.TicketID,
					AssignedTo: p.AssignedTo,
					Cause:      "ticket already has an active assignment",
				})
				continue
			}
			return nil, err
		}
		result.Created = append(result.Created, *a)
	}

	for _, p := range rejected {
		a, err := ledger.Reject(db, p.TicketID, p.AssignedTo, p.Reason)
		if err != nil {
			return nil, err
		}
		result.Rejected = append(result.Rejected, *a)
	}

	return result, nil
}

// Reassign moves the active assignment for a ticket to another developer.
// Returns ledger.ErrNotFound when the ticket has no active assignment and
// ledger.ErrValidation when the developer is unknown.
func Reassign(db *gorm.DB, ticketID uint, newDeveloper, reason string) (*models.Assignment, error) {
	dev, err := roster.DeveloperByName(db, newDeveloper)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("reconciler: unknown developer %q: %w", newDeveloper, ledger.ErrValidation)
	}

	a, err := ledger.ActiveByTicket(db, ticketID)
	if err != nil {
		return nil, err
	}
	return ledger.Reassign(db, a.ID, newDeveloper, reason)
}

// Remove soft-deletes the active assignment for a ticket.
func Remove(db *gorm.DB, ticketID uint, reason string) error {
	a, err := ledger.ActiveByTicket(db, ticketID)
	if err != nil {
		return err
	}
	return ledger.Remove(db, a.ID, reason)
}

// ResetAll removes every active assignment. Returns the affected count.
func ResetAll(db *gorm.DB, reason string) (int, error) {
	return ledger.ResetAll(db, reason)
}

// validateProposal checks an approved item before it reaches the ledger.
func validateProposal(db *gorm.DB, p Proposal) error {
	if p.TicketID == 0 {
		return fmt.Errorf("ticket id is required")
	}
	if p.AssignedTo == "" {
		return fmt.Errorf("no developer proposed")
	}
	t, err := roster.TicketByID(db, p.TicketID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("unknown ticket %d", p.TicketID)
	}
	dev, err := roster.DeveloperByName(db, p.AssignedTo)
	if err != nil {
		return err
	}
	if dev == nil {
		return fmt.Errorf("unknown developer %q", p.AssignedTo)
	}
	return nil
}
