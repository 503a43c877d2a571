package reconciler

import (
	"strings"

	"github.com/zulandar/roundhouse/internal/ledger"
	"github.com/zulandar/roundhouse/internal/models"
	"gorm.io/gorm"
)

// EligibilityFilter selects tickets for a new proposal round. Zero values
// mean "no constraint"; Limit <= 0 means no cap.
type EligibilityFilter struct {
	MinPoints int
	MaxPoints int
	Priority  string
	Limit     int
}

// EligibleTickets returns the tickets eligible for a proposal round, ordered
// by id. Actively assigned tickets are excluded first, then the story-point
// range and priority filters apply, and the result cap applies last. Capping
// before filtering would under-fill a requested batch size, so the order is
// fixed.
func EligibleTickets(db *gorm.DB, f EligibilityFilter) ([]models.Ticket, error) {
	assigned, err := ledger.ActiveTicketIDs(db)
	if err != nil {
		return nil, err
	}

	var tickets []models.Ticket
	if err := db.Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}

	var out []models.Ticket
	for _, t := range tickets {
		if assigned[t.ID] {
			continue
		}
		if f.MinPoints > 0 && t.StoryPoints < f.MinPoints {
			continue
		}
		if f.MaxPoints > 0 && t.StoryPoints > f.MaxPoints {
			continue
		}
		if f.Priority != "" && !strings.EqualFold(t.Priority, f.Priority) {
			continue
		}
		out = append(out, t)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
