package models

import (
	"strings"
	"time"
)

// Developer is a member of the roster that tickets can be assigned to.
// Workload and capacity are derived from active assignments and never stored.
type Developer struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string  `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Title           string  `gorm:"size:255" json:"title"`
	ExperienceYears int     `json:"experience_years"`
	Availability    float64 `json:"availability"`
	Skills          string  `gorm:"type:text" json:"skills"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SkillList splits the comma-separated Skills column into trimmed entries.
func (d *Developer) SkillList() []string {
	if d.Skills == "" {
		return nil
	}
	parts := strings.Split(d.Skills, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasSkill reports whether the developer lists the given skill
// (case-insensitive).
func (d *Developer) HasSkill(skill string) bool {
	for _, s := range d.SkillList() {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}
