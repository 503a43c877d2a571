// Package roster is the source of truth for developers and tickets.
//
// Workload and capacity are projections over the ledger's active
// assignments, recomputed on every read. They are intentionally not stored,
// so they can never drift from the assignments table.
package roster

import (
	"errors"
	"fmt"

	"github.com/zulandar/roundhouse/internal/models"
	"gorm.io/gorm"
)

// baseCapacityPoints is the story-point budget a fully available developer
// can carry. Capacity = availability × (baseCapacityPoints − workload).
const baseCapacityPoints = 20

// DeveloperView is a developer plus the derived workload numbers the API
// and CLI display.
type DeveloperView struct {
	models.Developer
	CurrentWorkload int     `json:"current_workload"`
	Capacity        float64 `json:"capacity"`
}

// TicketView is a ticket plus its derived assignment status.
type TicketView struct {
	models.Ticket
	Status     string `json:"status"` // "assigned" or "unassigned"
	AssignedTo string `json:"assigned_to,omitempty"`
}

// Capacity computes the capacity score for a developer.
func Capacity(availability float64, workload int) float64 {
	return availability * float64(baseCapacityPoints-workload)
}

// Workload sums the story points of a developer's active assignments.
func Workload(db *gorm.DB, developer string) (int, error) {
	var total int
	err := db.Model(&models.Assignment{}).
		Select("COALESCE(SUM(tickets.story_points), 0)").
		Joins("JOIN tickets ON tickets.id = assignments.ticket_id").
		Where("assignments.assigned_to = ? AND assignments.status = ?", developer, models.StatusActive).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("roster: workload for %s: %w", developer, err)
	}
	return total, nil
}

// Developers returns all developers with computed workload and capacity,
// ordered by name.
func Developers(db *gorm.DB) ([]DeveloperView, error) {
	var devs []models.Developer
	if err := db.Order("name ASC").Find(&devs).Error; err != nil {
		return nil, fmt.Errorf("roster: list developers: %w", err)
	}

	out := make([]DeveloperView, len(devs))
	for i, d := range devs {
		w, err := Workload(db, d.Name)
		if err != nil {
			return nil, err
		}
		out[i] = DeveloperView{
			Developer:       d,
			CurrentWorkload: w,
			Capacity:        Capacity(d.Availability, w),
		}
	}
	return out, nil
}

// DeveloperByName returns a developer, or (nil, nil) when absent.
func DeveloperByName(db *gorm.DB, name string) (*models.Developer, error) {
	var d models.Developer
	if err := db.Where("name = ?", name).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("roster: developer %s: %w", name, err)
	}
	return &d, nil
}

// Tickets returns all tickets with derived status, ordered by id. A ticket
// is "assigned" exactly when an active assignment references it.
func Tickets(db *gorm.DB) ([]TicketView, error) {
	var tickets []models.Ticket
	if err := db.Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("roster: list tickets: %w", err)
	}

	var active []models.Assignment
	if err := db.Where("status = ?", models.StatusActive).Find(&active).Error; err != nil {
		return nil, fmt.Errorf("roster: list active assignments: %w", err)
	}
	assignees := make(map[uint]string, len(active))
	for _, a := range active {
		assignees[a.TicketID] = a.AssignedTo
	}

	out := make([]TicketView, len(tickets))
	for i, t := range tickets {
		v := TicketView{Ticket: t, Status: "unassigned"}
		if dev, ok := assignees[t.ID]; ok {
			v.Status = "assigned"
			v.AssignedTo = dev
		}
		out[i] = v
	}
	return out, nil
}

// TicketByID returns a ticket, or (nil, nil) when absent.
func TicketByID(db *gorm.DB, id uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("roster: ticket %d: %w", id, err)
	}
	return &t, nil
}

// TicketsByIDs loads the given tickets, ordered by id. Missing ids are
// silently absent from the result.
func TicketsByIDs(db *gorm.DB, ids []uint) ([]models.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tickets []models.Ticket
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("roster: load tickets: %w", err)
	}
	return tickets, nil
}
