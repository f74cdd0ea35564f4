package repository

import (
	"errors"
	"time"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	domainRepo "github.com/vramonlinebsc/hms/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindAll(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Model(&entity.Appointment{})

	if filter != nil {
		if filter.DoctorID != nil {
			query = query.Where("doctor_id = ?", *filter.DoctorID)
		}
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Date != nil {
			day := filter.Date.UTC().Truncate(24 * time.Hour)
			query = query.Where("start_at >= ? AND start_at < ?", day, day.Add(24*time.Hour))
		}
	}

	err := query.Order("start_at ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// FindOverlappingBooked applies open-interval overlap:
// existing.start < proposed.end AND proposed.start < existing.end.
func (r *appointmentRepository) FindOverlappingBooked(db *gorm.DB, doctorID uuid.UUID, window entity.Window, excludeID *uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Where("doctor_id = ? AND status = ?", doctorID, entity.AppointmentStatusBooked).
		Where("start_at < ? AND ? < end_at", window.End, window.Start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindBookedEndingBefore(db *gorm.DB, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&entity.Appointment{}).
		Where("status = ? AND end_at < ?", entity.AppointmentStatusBooked, cutoff).
		Order("end_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// TransitionFromBooked is the single conditional write every lifecycle
// transition goes through: UPDATE ... WHERE id = ? AND status = 'BOOKED'.
func (r *appointmentRepository) TransitionFromBooked(db *gorm.DB, id uuid.UUID, to entity.AppointmentStatus, fields map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusBooked).
		Updates(updates)
	return result.RowsAffected, result.Error
}
