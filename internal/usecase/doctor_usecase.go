package usecase

import (
	"context"

	"github.com/vramonlinebsc/hms/internal/converter"
	"github.com/vramonlinebsc/hms/internal/delivery/dto"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound = apperror.NotFound("doctor not found")
)

type DoctorUsecase interface {
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	SetBlacklisted(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, blacklisted bool) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorProfileRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, apperror.Transient("failed to load doctor", err)
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorProfileToResponse(profile), nil
}

// SetBlacklisted flips the flag and audits only when it actually changed.
// Existing appointments of the doctor are left alone.
func (u *doctorUsecase) SetBlacklisted(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, blacklisted bool) (*dto.DoctorResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrDoctorNotFound
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperror.Transient("failed to start transaction", tx.Error)
	}
	defer tx.Rollback()

	profile, err := u.doctorRepo.FindByUserIDForUpdate(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to lock doctor %s: %+v", doctorID, err)
		return nil, apperror.Transient("failed to load doctor", err)
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	rows, err := u.doctorRepo.SetBlacklisted(tx, doctorID, blacklisted)
	if err != nil {
		u.log.Warnf("Failed to update blacklist for doctor %s: %+v", doctorID, err)
		return nil, apperror.Transient("failed to update doctor", err)
	}

	if rows > 0 {
		action := entity.AuditActionDoctorUnblacklisted
		if blacklisted {
			action = entity.AuditActionDoctorBlacklisted
		}
		metadata := entity.JSON{"is_blacklisted": blacklisted}
		if err := u.auditService.Log(ctx, tx, actor, action, entity.AuditEntityDoctor, doctorID.String(), metadata); err != nil {
			return nil, apperror.Transient("failed to write audit log", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, apperror.Transient("failed to commit doctor update", err)
	}

	profile.IsBlacklisted = blacklisted
	if rows > 0 {
		u.log.Infof("Doctor %s blacklisted=%t", doctorID, blacklisted)
	}
	return converter.DoctorProfileToResponse(profile), nil
}
