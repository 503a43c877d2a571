package proposer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/zulandar/roundhouse/internal/models"
)

// scriptedProposer answers from a fixed map and fails everything else.
type scriptedProposer struct {
	answers map[uint]string
}

func (s scriptedProposer) Name() string { return "scripted" }

func (s scriptedProposer) Propose(_ context.Context, ticket models.Ticket, _ Snapshot) (*Proposal, error) {
	dev, ok := s.answers[ticket.ID]
	if !ok {
		return nil, fmt.Errorf("no answer for ticket %d", ticket.ID)
	}
	return &Proposal{TicketID: ticket.ID, AssignedTo: dev, Reason: "scripted"}, nil
}

func testDevs() []Developer {
	return []Developer{
		{Name: "Alice", Title: "Senior Engineer", ExperienceYears: 8, Availability: 1.0, Skills: "Go, React", Capacity: 20},
		{Name: "Bob", Title: "Engineer", ExperienceYears: 3, Availability: 0.5, Skills: "Python", Capacity: 10},
	}
}

func TestBatch_OrderedResults(t *testing.T) {
	tickets := []models.Ticket{
		{ID: 3, StoryPoints: 2},
		{ID: 1, StoryPoints: 1},
		{ID: 2, StoryPoints: 3},
	}
	p := scriptedProposer{answers: map[uint]string{1: "Alice", 2: "Bob", 3: "Alice"}}

	proposals, dropped, err := Batch(context.Background(), p, tickets, testDevs(), 2)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(dropped) != 0 {
		t.Fatalf("dropped = %v, want none", dropped)
	}
	if len(proposals) != 3 {
		t.Fatalf("proposals = %d, want 3", len(proposals))
	}
	for i, want := range []uint{1, 2, 3} {
		if proposals[i].TicketID != want {
			t.Errorf("proposals[%d].TicketID = %d, want %d", i, proposals[i].TicketID, want)
		}
	}
}

func TestBatch_PerTicketFailureIsDropped(t *testing.T) {
	tickets := []models.Ticket{{ID: 1}, {ID: 2}}
	p := scriptedProposer{answers: map[uint]string{1: "Alice"}}

	proposals, dropped, err := Batch(context.Background(), p, tickets, testDevs(), 1)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(proposals) != 1 || proposals[0].TicketID != 1 {
		t.Errorf("proposals = %+v, want only ticket 1", proposals)
	}
	if len(dropped) != 1 || dropped[0].TicketID != 2 {
		t.Fatalf("dropped = %+v, want ticket 2", dropped)
	}
	if dropped[0].Cause == "" {
		t.Error("dropped cause is empty")
	}
}

func TestBatch_AllFailedIsUpstreamError(t *testing.T) {
	tickets := []models.Ticket{{ID: 1}, {ID: 2}}
	p := scriptedProposer{answers: map[uint]string{}}

	_, _, err := Batch(context.Background(), p, tickets, testDevs(), 2)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tickets := []models.Ticket{{ID: 1}}
	p := scriptedProposer{answers: map[uint]string{1: "Alice"}}

	_, _, err := Batch(ctx, p, tickets, testDevs(), 1)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream on cancel", err)
	}
}

func TestBatch_EmptyTickets(t *testing.T) {
	proposals, dropped, err := Batch(context.Background(), Balance{}, nil, testDevs(), 5)
	if err != nil || proposals != nil || dropped != nil {
		t.Fatalf("got (%v, %v, %v), want all nil", proposals, dropped, err)
	}
}

func TestBatch_TracksBatchLoad(t *testing.T) {
	// With serial workers and Balance, the batch counters must spread load:
	// Alice has far more capacity, but after she absorbs some tickets the
	// distribution penalty and shrinking remainder keep the batch moving.
	tickets := make([]models.Ticket, 6)
	for i := range tickets {
		tickets[i] = models.Ticket{ID: uint(i + 1), StoryPoints: 5}
	}
	devs := []Developer{
		{Name: "Alice", Capacity: 20},
		{Name: "Bob", Capacity: 20},
	}

	proposals, dropped, err := Batch(context.Background(), Balance{}, tickets, devs, 1)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(proposals) != 6 || len(dropped) != 0 {
		t.Fatalf("got %d proposals, %d dropped, want 6/0", len(proposals), len(dropped))
	}

	counts := map[string]int{}
	for _, p := range proposals {
		counts[p.AssignedTo]++
	}
	if counts["Alice"] == 6 || counts["Bob"] == 6 {
		t.Errorf("load not spread: %v", counts)
	}
}

func TestSnapshotHas(t *testing.T) {
	snap := Snapshot{Developers: testDevs()}
	if !snap.Has("Alice") {
		t.Error("Has(Alice) = false, want true")
	}
	if snap.Has("alice") {
		t.Error("Has(alice) = true, want exact match only")
	}
	if snap.Has("Carol") {
		t.Error("Has(Carol) = true, want false")
	}
}
