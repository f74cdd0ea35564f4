package database

import (
	"fmt"

	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeWindowIndex is the last-resort guard against double booking: at most one
// BOOKED appointment per doctor and window start. Partial indexes work on both
// PostgreSQL and SQLite.
const activeWindowIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_window
	ON appointments (doctor_id, window_key) WHERE status = 'BOOKED'`

// Migrate creates or updates the schema and seeds the roles table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.DoctorProfile{},
		&entity.Appointment{},
		&entity.NoShowPenalty{},
		&entity.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := db.Exec(activeWindowIndex).Error; err != nil {
		return fmt.Errorf("create active window index: %w", err)
	}

	roles := entity.DefaultRoles()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	return nil
}
