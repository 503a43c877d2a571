package roster

import (
	"strings"
	"testing"

	"github.com/zulandar/roundhouse/internal/models"
)

const developersCSV = `name,title,experience_years,availability,skills
Alice,Senior Software Engineer,8,0.85,"React, TypeScript"
Bob,Backend Engineer,5,0.60,"Go, SQL"
`

const ticketsCSV = `id,title,description,story_points,required_skill,priority,due_date
1,Login page,Build the login page,3,React,High,2026-10-01
2,,Fix the batch importer,8,Go,,
`

func TestSyncDevelopers(t *testing.T) {
	db := openTestDB(t)

	n, err := SyncDevelopers(db, strings.NewReader(developersCSV))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 {
		t.Errorf("synced = %d, want 2", n)
	}

	dev, err := DeveloperByName(db, "Alice")
	if err != nil || dev == nil {
		t.Fatalf("alice not found: %v", err)
	}
	if dev.Title != "Senior Software Engineer" || dev.ExperienceYears != 8 || dev.Availability != 0.85 {
		t.Errorf("alice = %+v", dev)
	}
}

func TestSyncDevelopers_UpsertNoDuplicates(t *testing.T) {
	db := openTestDB(t)

	if _, err := SyncDevelopers(db, strings.NewReader(developersCSV)); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	updated := strings.Replace(developersCSV, "0.85", "0.50", 1)
	if _, err := SyncDevelopers(db, strings.NewReader(updated)); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	var count int64
	db.Model(&models.Developer{}).Count(&count)
	if count != 2 {
		t.Errorf("developer rows = %d, want 2 after re-sync", count)
	}

	dev, _ := DeveloperByName(db, "Alice")
	if dev.Availability != 0.50 {
		t.Errorf("availability = %v, want updated 0.50", dev.Availability)
	}
}

func TestSyncDevelopers_LegacyExperienceHeader(t *testing.T) {
	db := openTestDB(t)
	csv := "name,experience,availability,skills\nCarol,3,0.9,Python\n"

	if _, err := SyncDevelopers(db, strings.NewReader(csv)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	dev, _ := DeveloperByName(db, "Carol")
	if dev == nil || dev.ExperienceYears != 3 {
		t.Errorf("carol = %+v, want experience 3", dev)
	}
}

func TestSyncDevelopers_MissingColumns(t *testing.T) {
	db := openTestDB(t)

	_, err := SyncDevelopers(db, strings.NewReader("name,title\nAlice,Engineer\n"))
	if err == nil || !strings.Contains(err.Error(), "missing required columns") {
		t.Errorf("error = %v, want missing-columns error", err)
	}
}

func TestSyncTickets(t *testing.T) {
	db := openTestDB(t)

	n, err := SyncTickets(db, strings.NewReader(ticketsCSV))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 {
		t.Errorf("synced = %d, want 2", n)
	}

	tk, err := TicketByID(db, 1)
	if err != nil || tk == nil {
		t.Fatalf("ticket 1 not found: %v", err)
	}
	if tk.StoryPoints != 3 || tk.RequiredSkill != "React" || tk.Priority != "High" {
		t.Errorf("ticket 1 = %+v", tk)
	}
	if tk.DueDate == nil || tk.DueDate.Format("2006-01-02") != "2026-10-01" {
		t.Errorf("due date = %v, want 2026-10-01", tk.DueDate)
	}

	tk2, _ := TicketByID(db, 2)
	if tk2.DueDate != nil || tk2.Priority != "" {
		t.Errorf("ticket 2 = %+v, want empty priority and no due date", tk2)
	}
}

func TestSyncTickets_NegativePoints(t *testing.T) {
	db := openTestDB(t)
	csv := "id,description,story_points,required_skill\n1,bad,-2,Go\n"

	_, err := SyncTickets(db, strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "negative") {
		t.Errorf("error = %v, want negative story points error", err)
	}
}

func TestSyncTickets_BadID(t *testing.T) {
	db := openTestDB(t)
	csv := "id,description,story_points,required_skill\nzero,desc,1,Go\n"

	if _, err := SyncTickets(db, strings.NewReader(csv)); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestSyncTickets_Empty(t *testing.T) {
	db := openTestDB(t)
	if _, err := SyncTickets(db, strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}
