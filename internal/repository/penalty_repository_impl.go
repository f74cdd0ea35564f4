package repository

import (
	"errors"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	domainRepo "github.com/vramonlinebsc/hms/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type penaltyRepository struct{}

func NewPenaltyRepository() domainRepo.PenaltyRepository {
	return &penaltyRepository{}
}

func (r *penaltyRepository) FindNoShowsWithoutPenalty(db *gorm.DB) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Model(&entity.Appointment{}).
		Select("appointments.*").
		Joins("LEFT JOIN patient_no_show_penalties p ON p.appointment_id = appointments.id").
		Where("appointments.status = ? AND p.id IS NULL", entity.AppointmentStatusNoShow).
		Order("appointments.end_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// InsertIfAbsent relies on the unique index on appointment_id:
// INSERT ... ON CONFLICT (appointment_id) DO NOTHING.
func (r *penaltyRepository) InsertIfAbsent(db *gorm.DB, penalty *entity.NoShowPenalty) (int64, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}},
		DoNothing: true,
	}).Create(penalty)
	return result.RowsAffected, result.Error
}

func (r *penaltyRepository) FindPendingNotifications(db *gorm.DB) ([]entity.PendingNotification, error) {
	var pending []entity.PendingNotification
	err := db.Table("patient_no_show_penalties AS p").
		Select("p.id AS penalty_id, p.appointment_id, p.patient_id, u.email").
		Joins("JOIN users u ON u.id = p.patient_id").
		Where("p.notification_sent = ?", false).
		Order("p.created_at ASC").
		Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// LockPending uses FOR UPDATE SKIP LOCKED so two concurrent sweeps never
// hand the same penalty to the queue at the same time.
func (r *penaltyRepository) LockPending(db *gorm.DB, id uuid.UUID) (*entity.NoShowPenalty, error) {
	var penalty entity.NoShowPenalty
	err := db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("id = ? AND notification_sent = ?", id, false).
		First(&penalty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &penalty, nil
}

func (r *penaltyRepository) MarkNotificationSent(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.NoShowPenalty{}).
		Where("id = ? AND notification_sent = ?", id, false).
		Update("notification_sent", true)
	return result.RowsAffected, result.Error
}

func (r *penaltyRepository) FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) (*entity.NoShowPenalty, error) {
	var penalty entity.NoShowPenalty
	err := db.Where("appointment_id = ?", appointmentID).First(&penalty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &penalty, nil
}

func (r *penaltyRepository) FindAll(db *gorm.DB) ([]entity.NoShowPenalty, error) {
	var penalties []entity.NoShowPenalty
	err := db.Order("created_at ASC").Find(&penalties).Error
	if err != nil {
		return nil, err
	}
	return penalties, nil
}
