// Package proposer generates candidate assignments, one per ticket, by
// consulting an external model or an offline heuristic. It never writes to
// the ledger: a proposal batch is prepared in full (or as much of it as the
// upstream allows) before anything is committed.
package proposer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zulandar/roundhouse/internal/models"
)

// ErrUpstream means the proposal generator failed wholesale, not for a
// single ticket.
var ErrUpstream = errors.New("proposal generator unavailable")

// Proposal is one candidate assignment as returned by a generator.
type Proposal struct {
	TicketID   uint   `json:"ticket_id"`
	AssignedTo string `json:"assigned_to"`
	Reason     string `json:"reason"`
}

// Dropped records a ticket that got no proposal, with the cause.
type Dropped struct {
	TicketID uint   `json:"ticket_id"`
	Cause    string `json:"cause"`
}

// Developer is a roster snapshot entry handed to generators. Workload and
// Capacity reflect persisted state at batch start; BatchTickets and
// BatchPoints accumulate assignments made earlier in the same batch so the
// generator can balance distribution.
type Developer struct {
	Name            string
	Title           string
	ExperienceYears int
	Availability    float64
	Skills          string
	Workload        int
	Capacity        float64
	BatchTickets    int
	BatchPoints     int
}

// Snapshot is the roster view for one Propose call.
type Snapshot struct {
	Developers []Developer
}

// Has reports whether the snapshot contains the named developer.
func (s Snapshot) Has(name string) bool {
	for _, d := range s.Developers {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Proposer generates one proposal per ticket.
type Proposer interface {
	// Propose returns a candidate assignment for the ticket, or an error
	// when this ticket gets no proposal.
	Propose(ctx context.Context, ticket models.Ticket, snap Snapshot) (*Proposal, error)
	// Name identifies the generator in logs and output.
	Name() string
}

// Batch runs the proposer over every ticket with at most workers concurrent
// calls. The concurrency bound exists to avoid overwhelming the external
// API, not for correctness. Per-ticket failures become Dropped entries;
// the batch as a whole fails only when the context is cancelled or every
// single ticket failed. Results are ordered by ticket id.
func Batch(ctx context.Context, p Proposer, tickets []models.Ticket, devs []Developer, workers int) ([]Proposal, []Dropped, error) {
	if len(tickets) == 0 {
		return nil, nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	snapDevs := make([]Developer, len(devs))
	copy(snapDevs, devs)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		proposals []Proposal
		dropped   []Dropped
	)
	sem := make(chan struct{}, workers)

	for _, t := range tickets {
		wg.Add(1)
		go func(ticket models.Ticket) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			// Snapshot with batch-so-far counts, taken under the lock.
			mu.Lock()
			snap := Snapshot{Developers: append([]Developer(nil), snapDevs...)}
			mu.Unlock()

			prop, err := p.Propose(ctx, ticket, snap)
			if err != nil {
				mu.Lock()
				dropped = append(dropped, Dropped{TicketID: ticket.ID, Cause: err.Error()})
				mu.Unlock()
				return
			}

			mu.Lock()
			proposals = append(proposals, *prop)
			for i := range snapDevs {
				if snapDevs[i].Name == prop.AssignedTo {
					snapDevs[i].BatchTickets++
					snapDevs[i].BatchPoints += ticket.StoryPoints
				}
			}
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, nil, fmt.Errorf("proposer: batch cancelled: %w", ErrUpstream)
	}
	if len(proposals) == 0 && len(dropped) > 0 {
		return nil, nil, fmt.Errorf("proposer: no ticket received a proposal (%s): %w", dropped[0].Cause, ErrUpstream)
	}

	sort.Slice(proposals, func(i, j int) bool { return proposals[i].TicketID < proposals[j].TicketID })
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].TicketID < dropped[j].TicketID })
	return proposals, dropped, nil
}
