package service

import (
	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidWindow     = apperror.Validation("start must be before end")
	ErrWindowNotInFuture = apperror.Validation("start must be in the future")
)

// ConflictChecker decides whether a proposed window collides with a BOOKED
// appointment of the same doctor. It only reads; callers run it in the same
// transaction as the insert that follows.
type ConflictChecker interface {
	Check(db *gorm.DB, doctorID uuid.UUID, window entity.Window, excludeID *uuid.UUID) (bool, error)
}

type conflictChecker struct {
	clock           clock.Clock
	appointmentRepo repository.AppointmentRepository
}

func NewConflictChecker(clk clock.Clock, appointmentRepo repository.AppointmentRepository) ConflictChecker {
	return &conflictChecker{
		clock:           clk,
		appointmentRepo: appointmentRepo,
	}
}

// Check returns a validation error for a malformed or past window, otherwise
// whether any BOOKED appointment overlaps it.
func (c *conflictChecker) Check(db *gorm.DB, doctorID uuid.UUID, window entity.Window, excludeID *uuid.UUID) (bool, error) {
	if err := ValidateWindow(window, c.clock); err != nil {
		return false, err
	}

	overlapping, err := c.appointmentRepo.FindOverlappingBooked(db, doctorID, window.Normalize(), excludeID)
	if err != nil {
		return false, err
	}
	return len(overlapping) > 0, nil
}

// ValidateWindow rejects start >= end and a start that is not strictly after now.
func ValidateWindow(window entity.Window, clk clock.Clock) error {
	if !window.IsValid() {
		return ErrInvalidWindow
	}
	if !window.Start.After(clk.Now()) {
		return ErrWindowNotInFuture
	}
	return nil
}
