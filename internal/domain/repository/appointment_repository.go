package repository

import (
	"time"

	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	// FindOverlappingBooked returns BOOKED appointments of the doctor whose window
	// overlaps [start, end), skipping excludeID when set.
	FindOverlappingBooked(db *gorm.DB, doctorID uuid.UUID, window entity.Window, excludeID *uuid.UUID) ([]entity.Appointment, error)
	// FindBookedEndingBefore returns ids of BOOKED appointments with end < cutoff.
	FindBookedEndingBefore(db *gorm.DB, cutoff time.Time) ([]uuid.UUID, error)
	// TransitionFromBooked sets status (and optional fields) only while the row is
	// still BOOKED. Returns affected rows: 1 = this caller won, 0 = someone else did.
	TransitionFromBooked(db *gorm.DB, id uuid.UUID, to entity.AppointmentStatus, fields map[string]interface{}) (int64, error)
}
