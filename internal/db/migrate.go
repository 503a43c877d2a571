package db

import (
	"fmt"

	"github.com/zulandar/roundhouse/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Developer{},
		&models.Ticket{},
		&models.Assignment{},
		&models.AssignmentHistory{},
	}
}

// AutoMigrate creates or updates all tables, including the unique index on
// assignments.active_ticket that enforces one active assignment per ticket.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
