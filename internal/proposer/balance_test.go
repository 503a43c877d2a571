package proposer

import (
	"context"
	"strings"
	"testing"

	"github.com/zulandar/roundhouse/internal/models"
)

func TestBalance_SkillMatchWins(t *testing.T) {
	snap := Snapshot{Developers: []Developer{
		{Name: "Alice", Skills: "Go, React", Capacity: 10},
		{Name: "Bob", Skills: "Python", Capacity: 12},
	}}
	ticket := models.Ticket{ID: 1, StoryPoints: 3, RequiredSkill: "React"}

	prop, err := Balance{}.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	// Bob has 0.8 more capacity score but Alice gets the 5-point skill bonus.
	if prop.AssignedTo != "Alice" {
		t.Errorf("assigned to %q, want Alice", prop.AssignedTo)
	}
	if !strings.Contains(prop.Reason, "Alice") {
		t.Errorf("reason %q does not name the developer", prop.Reason)
	}
}

func TestBalance_SkillMatchIsCaseInsensitive(t *testing.T) {
	snap := Snapshot{Developers: []Developer{
		{Name: "Alice", Skills: "go, react", Capacity: 10},
		{Name: "Bob", Skills: "Python", Capacity: 12},
	}}
	ticket := models.Ticket{ID: 1, StoryPoints: 3, RequiredSkill: "GO"}

	prop, err := Balance{}.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.AssignedTo != "Alice" {
		t.Errorf("assigned to %q, want Alice", prop.AssignedTo)
	}
}

func TestBalance_SkipsOverloadedDevelopers(t *testing.T) {
	snap := Snapshot{Developers: []Developer{
		{Name: "Alice", Skills: "Go", Capacity: 4, BatchPoints: 3},
		{Name: "Bob", Skills: "Python", Capacity: 20},
	}}
	// Alice matches the skill but has only 1 point of room left.
	ticket := models.Ticket{ID: 1, StoryPoints: 5, RequiredSkill: "Go"}

	prop, err := Balance{}.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.AssignedTo != "Bob" {
		t.Errorf("assigned to %q, want Bob", prop.AssignedTo)
	}
}

func TestBalance_OverflowFallsBackToMostRoom(t *testing.T) {
	snap := Snapshot{Developers: []Developer{
		{Name: "Alice", Capacity: 2},
		{Name: "Bob", Capacity: 6},
		{Name: "Carol", Capacity: 4},
	}}
	ticket := models.Ticket{ID: 1, StoryPoints: 8}

	prop, err := Balance{}.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.AssignedTo != "Bob" {
		t.Errorf("assigned to %q, want Bob (most remaining capacity)", prop.AssignedTo)
	}
}

func TestBalance_EmptyRoster(t *testing.T) {
	_, err := Balance{}.Propose(context.Background(), models.Ticket{ID: 1}, Snapshot{})
	if err == nil {
		t.Fatal("propose on empty roster: want error")
	}
}

func TestBalance_ExperienceBreaksTies(t *testing.T) {
	snap := Snapshot{Developers: []Developer{
		{Name: "Alice", Capacity: 10, ExperienceYears: 2},
		{Name: "Bob", Capacity: 10, ExperienceYears: 9},
	}}
	ticket := models.Ticket{ID: 1, StoryPoints: 3}

	prop, err := Balance{}.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.AssignedTo != "Bob" {
		t.Errorf("assigned to %q, want Bob", prop.AssignedTo)
	}
}
