package repository

import (
	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"gorm.io/gorm"
)

// AuditLogRepository is append-only: there is no Update or Delete.
type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindAll(db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}
