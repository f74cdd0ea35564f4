package repository

import (
	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindByUserIDForUpdate locks the doctor row for the rest of the transaction,
	// serializing bookings against the same doctor.
	FindByUserIDForUpdate(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	SetBlacklisted(db *gorm.DB, userID uuid.UUID, blacklisted bool) (int64, error)
}
