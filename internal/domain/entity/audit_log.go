package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a system audit trail entry. Rows are append-only.
type AuditLog struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorRole  string     `gorm:"type:varchar(20);not null" json:"actor_role"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action     string     `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(50);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(64);not null;index:idx_audit_entity" json:"entity_id"`
	Metadata   JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter narrows audit listings.
type AuditLogFilter struct {
	EntityType string
	EntityID   string
	Action     string
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Audit entity types
const (
	AuditEntityAppointment = "appointment"
	AuditEntityDoctor      = "doctor"
)

// Audit actions. Appointment actions are the status the appointment moved into.
const (
	AuditActionBooked               = string(AppointmentStatusBooked)
	AuditActionCompleted            = string(AppointmentStatusCompleted)
	AuditActionCancelledByAdmin     = string(AppointmentStatusCancelledByAdmin)
	AuditActionCancelledByRequester = string(AppointmentStatusCancelledByRequester)
	AuditActionCancelledByResource  = string(AppointmentStatusCancelledByResource)
	AuditActionNoShow               = string(AppointmentStatusNoShow)
	AuditActionDoctorBlacklisted    = "DOCTOR_BLACKLISTED"
	AuditActionDoctorUnblacklisted  = "DOCTOR_UNBLACKLISTED"
)
