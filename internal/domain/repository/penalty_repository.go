package repository

import (
	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PenaltyRepository interface {
	// FindNoShowsWithoutPenalty returns NO_SHOW appointments lacking a penalty row.
	FindNoShowsWithoutPenalty(db *gorm.DB) ([]entity.Appointment, error)
	// InsertIfAbsent inserts the penalty unless one exists for its appointment.
	// Returns affected rows: 0 means a penalty already existed.
	InsertIfAbsent(db *gorm.DB, penalty *entity.NoShowPenalty) (int64, error)
	FindPendingNotifications(db *gorm.DB) ([]entity.PendingNotification, error)
	// LockPending locks one penalty row that still has notification_sent = false.
	// Returns nil when the row is gone, already sent, or locked by another sweep.
	LockPending(db *gorm.DB, id uuid.UUID) (*entity.NoShowPenalty, error)
	MarkNotificationSent(db *gorm.DB, id uuid.UUID) (int64, error)
	FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) (*entity.NoShowPenalty, error)
	FindAll(db *gorm.DB) ([]entity.NoShowPenalty, error)
}
