package proposer

import (
	"context"
	"fmt"
	"strings"

	"github.com/zulandar/roundhouse/internal/models"
)

// Balance is an offline proposer that scores developers on remaining
// capacity, skill match, batch distribution, and experience. It needs no
// API key and is the fallback when no external generator is configured.
type Balance struct{}

// Name implements Proposer.
func (Balance) Name() string { return "balance" }

// Propose implements Proposer. Developers whose remaining capacity cannot
// absorb the ticket are skipped; if nobody has room, the developer with the
// most remaining capacity takes it anyway.
func (Balance) Propose(_ context.Context, ticket models.Ticket, snap Snapshot) (*Proposal, error) {
	if len(snap.Developers) == 0 {
		return nil, fmt.Errorf("proposer: roster is empty")
	}

	skill := strings.ToLower(ticket.RequiredSkill)
	best := -1
	bestScore := -1.0

	for i, d := range snap.Developers {
		remaining := d.Capacity - float64(d.BatchPoints)
		if remaining < float64(ticket.StoryPoints) {
			continue
		}

		score := remaining * 0.4
		if skill != "" && strings.Contains(strings.ToLower(d.Skills), skill) {
			score += 5.0
		}
		score += float64(10-d.BatchTickets) * 0.5
		score += float64(d.ExperienceYears) * 0.1

		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best < 0 {
		// Everyone is over capacity: take whoever has the most room left.
		for i := range snap.Developers {
			remaining := snap.Developers[i].Capacity - float64(snap.Developers[i].BatchPoints)
			if best < 0 || remaining > snap.Developers[best].Capacity-float64(snap.Developers[best].BatchPoints) {
				best = i
			}
		}
	}

	d := snap.Developers[best]
	remaining := d.Capacity - float64(d.BatchPoints)
	reason := fmt.Sprintf(
		"%s (%s) selected by capacity balancing: %.0f%% availability, %d pts current workload, %.2f capacity, %.2f remaining, %d years experience, skills: %s. %d tickets already assigned in this batch.",
		d.Name, d.Title, d.Availability*100, d.Workload, d.Capacity, remaining, d.ExperienceYears, d.Skills, d.BatchTickets)

	return &Proposal{TicketID: ticket.ID, AssignedTo: d.Name, Reason: reason}, nil
}
