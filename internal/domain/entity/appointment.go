package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus is persisted verbatim; the values are a wire-level contract.
type AppointmentStatus string

const (
	AppointmentStatusBooked               AppointmentStatus = "BOOKED"
	AppointmentStatusCompleted            AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelledByAdmin     AppointmentStatus = "CANCELLED_BY_ADMIN"
	AppointmentStatusCancelledByRequester AppointmentStatus = "CANCELLED_BY_REQUESTER"
	AppointmentStatusCancelledByResource  AppointmentStatus = "CANCELLED_BY_RESOURCE"
	AppointmentStatusNoShow               AppointmentStatus = "NO_SHOW"
)

// AllAppointmentStatuses lists every persisted status value.
var AllAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusBooked,
	AppointmentStatusCompleted,
	AppointmentStatusCancelledByAdmin,
	AppointmentStatusCancelledByRequester,
	AppointmentStatusCancelledByResource,
	AppointmentStatusNoShow,
}

// IsValid reports whether s is a known status.
func (s AppointmentStatus) IsValid() bool {
	for _, known := range AllAppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s AppointmentStatus) IsTerminal() bool {
	return s.IsValid() && s != AppointmentStatusBooked
}

// Appointment is an exclusive reservation of a doctor's time by a patient.
type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	StartAt   time.Time         `gorm:"not null;index" json:"start_at"`
	EndAt     time.Time         `gorm:"not null;index" json:"end_at"`
	WindowKey string            `gorm:"type:varchar(64);not null" json:"-"`
	Status    AppointmentStatus `gorm:"type:varchar(32);not null;default:'BOOKED';index" json:"status"`
	Diagnosis string            `gorm:"type:text" json:"diagnosis,omitempty"`
	Treatment string            `gorm:"type:text" json:"treatment,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Window returns the reservation window of the appointment.
func (a *Appointment) Window() Window {
	return Window{Start: a.StartAt, End: a.EndAt}
}

// IsBooked checks if the appointment is still open
func (a *Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

// IsVisibleTo reports whether actor may see the appointment.
func (a *Appointment) IsVisibleTo(actor Actor) bool {
	switch actor.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleDoctor:
		return a.DoctorID == actor.ID
	case RolePatient:
		return a.PatientID == actor.ID
	}
	return false
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    AppointmentStatus
	Date      *time.Time // UTC day of StartAt
}
