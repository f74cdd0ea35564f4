package service

import (
	"context"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService appends audit entries inside the caller's transaction, so an
// entry exists if and only if the change it describes was committed.
type AuditService interface {
	Log(ctx context.Context, tx *gorm.DB, actor entity.Actor, action, entityType, entityID string, metadata entity.JSON) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Log(ctx context.Context, tx *gorm.DB, actor entity.Actor, action, entityType, entityID string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		ActorRole:  actor.Role,
		ActorID:    actor.AuditID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log %s for %s %s: %+v", action, entityType, entityID, err)
		return err
	}

	return nil
}
