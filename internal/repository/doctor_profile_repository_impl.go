package repository

import (
	"errors"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	domainRepo "github.com/vramonlinebsc/hms/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) FindByUserID(db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.Preload("User").Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindByUserIDForUpdate takes a row lock on the profile (SELECT ... FOR UPDATE).
// SQLite has no row locks; there the single writer serializes instead.
func (r *doctorProfileRepository) FindByUserIDForUpdate(db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", doctorID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := db.Where("id = ?", doctorID).First(&profile.User).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *doctorProfileRepository) SetBlacklisted(db *gorm.DB, doctorID uuid.UUID, blacklisted bool) (int64, error) {
	result := db.Model(&entity.DoctorProfile{}).
		Where("user_id = ? AND is_blacklisted = ?", doctorID, !blacklisted).
		Update("is_blacklisted", blacklisted)
	return result.RowsAffected, result.Error
}
