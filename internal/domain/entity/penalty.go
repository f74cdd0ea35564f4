package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NoShowPenalty is recorded exactly once per NO_SHOW appointment.
// Only NotificationSent ever changes after insert, and only from false to true.
type NoShowPenalty struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	PatientID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	Fee              decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fee"`
	NotificationSent bool            `gorm:"not null;default:false;index" json:"notification_sent"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (NoShowPenalty) TableName() string {
	return "patient_no_show_penalties"
}

func (p *NoShowPenalty) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PendingNotification is a penalty whose notification has not been handed to
// the queue yet, joined with the patient's contact address.
type PendingNotification struct {
	PenaltyID     uuid.UUID
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Email         string
}
