package reconciler

import (
	"testing"

	"github.com/zulandar/roundhouse/internal/ledger"
	"github.com/zulandar/roundhouse/internal/models"
)

func TestEligibleTickets_ExcludesAssigned(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 3, "Go", "")
	seedTicket(t, db, 2, 3, "Go", "")
	ledger.Create(db, 1, "Alice", "", models.AssignedByAI)

	out, err := EligibleTickets(db, EligibilityFilter{})
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("eligible = %v, want only ticket 2", out)
	}
}

func TestEligibleTickets_CapAppliesAfterFilters(t *testing.T) {
	db := openTestDB(t)
	// Story points [1,1,1,8,8]: a 1-2 point filter with cap 2 must return
	// two 1-point tickets, not a truncated pre-filter slice.
	points := []int{1, 1, 1, 8, 8}
	for i, p := range points {
		seedTicket(t, db, uint(i+1), p, "Go", "")
	}

	out, err := EligibleTickets(db, EligibilityFilter{MinPoints: 1, MaxPoints: 2, Limit: 2})
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want exactly 2", len(out))
	}
	for _, tk := range out {
		if tk.StoryPoints != 1 {
			t.Errorf("ticket %d has %d points, want 1", tk.ID, tk.StoryPoints)
		}
	}
}

func TestEligibleTickets_PriorityFilter(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 3, "Go", models.PriorityHigh)
	seedTicket(t, db, 2, 3, "Go", models.PriorityLow)
	seedTicket(t, db, 3, 3, "Go", "")

	out, err := EligibleTickets(db, EligibilityFilter{Priority: "high"})
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Errorf("eligible = %v, want only the High ticket", out)
	}
}

func TestEligibleTickets_ZeroLimitMeansNoLimit(t *testing.T) {
	db := openTestDB(t)
	for i := uint(1); i <= 25; i++ {
		seedTicket(t, db, i, 1, "Go", "")
	}

	out, err := EligibleTickets(db, EligibilityFilter{Limit: 0})
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(out) != 25 {
		t.Errorf("len = %d, want all 25", len(out))
	}
}
