package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/roundhouse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncDevelopersCSV upserts developers from a CSV file keyed by name.
// Expected header: name,title,experience_years,availability,skills.
// The legacy headers "experience" and "workload" are accepted; workload
// columns are ignored since workload is derived.
func SyncDevelopersCSV(db *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("roster: open developers csv: %w", err)
	}
	defer f.Close()
	return SyncDevelopers(db, f)
}

// SyncDevelopers upserts developers from CSV data keyed by name.
func SyncDevelopers(db *gorm.DB, r io.Reader) (int, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return 0, fmt.Errorf("roster: developers csv: %w", err)
	}
	if err := requireColumns(header, "name", "availability", "skills"); err != nil {
		return 0, fmt.Errorf("roster: developers csv: %w", err)
	}

	count := 0
	for i, row := range rows {
		name := row["name"]
		if name == "" {
			return count, fmt.Errorf("roster: developers csv row %d: name is required", i+2)
		}

		availability, err := strconv.ParseFloat(row["availability"], 64)
		if err != nil {
			return count, fmt.Errorf("roster: developers csv row %d: availability %q: %w", i+2, row["availability"], err)
		}

		experience := 0
		if v := firstOf(row, "experience_years", "experience"); v != "" {
			experience, err = strconv.Atoi(v)
			if err != nil {
				return count, fmt.Errorf("roster: developers csv row %d: experience %q: %w", i+2, v, err)
			}
		}

		title := row["title"]
		if title == "" {
			title = "Software Engineer"
		}

		dev := models.Developer{
			Name:            name,
			Title:           title,
			ExperienceYears: experience,
			Availability:    availability,
			Skills:          row["skills"],
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "experience_years", "availability", "skills"}),
		}).Create(&dev)
		if result.Error != nil {
			return count, fmt.Errorf("roster: upsert developer %q: %w", name, result.Error)
		}
		count++
	}
	return count, nil
}

// SyncTicketsCSV upserts tickets from a CSV file keyed by id.
// Expected header: id,description,story_points,required_skill with optional
// title, priority, and due_date (YYYY-MM-DD) columns.
func SyncTicketsCSV(db *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("roster: open tickets csv: %w", err)
	}
	defer f.Close()
	return SyncTickets(db, f)
}

// SyncTickets upserts tickets from CSV data keyed by id.
func SyncTickets(db *gorm.DB, r io.Reader) (int, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return 0, fmt.Errorf("roster: tickets csv: %w", err)
	}
	if err := requireColumns(header, "id", "description", "story_points", "required_skill"); err != nil {
		return 0, fmt.Errorf("roster: tickets csv: %w", err)
	}

	count := 0
	for i, row := range rows {
		id, err := strconv.ParseUint(row["id"], 10, 32)
		if err != nil || id == 0 {
			return count, fmt.Errorf("roster: tickets csv row %d: bad id %q", i+2, row["id"])
		}

		points := 0
		if v := row["story_points"]; v != "" {
			points, err = strconv.Atoi(v)
			if err != nil {
				return count, fmt.Errorf("roster: tickets csv row %d: story_points %q: %w", i+2, v, err)
			}
		}
		if points < 0 {
			return count, fmt.Errorf("roster: tickets csv row %d: story_points must not be negative", i+2)
		}

		ticket := models.Ticket{
			ID:            uint(id),
			Title:         row["title"],
			Description:   row["description"],
			StoryPoints:   points,
			RequiredSkill: row["required_skill"],
			Priority:      row["priority"],
		}

		if v := row["due_date"]; v != "" {
			due, err := time.Parse("2006-01-02", v)
			if err == nil {
				ticket.DueDate = &due
			}
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "story_points", "required_skill", "priority", "due_date"}),
		}).Create(&ticket)
		if result.Error != nil {
			return count, fmt.Errorf("roster: upsert ticket %d: %w", id, result.Error)
		}
		count++
	}
	return count, nil
}

// readCSV parses CSV data into one map per row keyed by lower-cased header.
func readCSV(r io.Reader) ([]map[string]string, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// requireColumns verifies the header contains every named column.
func requireColumns(header []string, cols ...string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, c := range cols {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// firstOf returns the first non-empty value among the named columns.
func firstOf(row map[string]string, cols ...string) string {
	for _, c := range cols {
		if v := row[c]; v != "" {
			return v
		}
	}
	return ""
}
