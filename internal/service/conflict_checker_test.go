package service

import (
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/repository"
	"github.com/vramonlinebsc/hms/internal/testutil"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictChecker(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	repo := repository.NewAppointmentRepository()
	checker := NewConflictChecker(clk, repo)

	doctorID := testutil.SeedDoctor(t, db)
	patientID := testutil.SeedPatient(t, db)

	existing := entity.Window{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	booked := &entity.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		StartAt:   existing.Start,
		EndAt:     existing.End,
		WindowKey: existing.Key(),
		Status:    entity.AppointmentStatusBooked,
	}
	require.NoError(t, repo.Create(db, booked))

	cancelledWindow := entity.Window{Start: now.Add(3 * time.Hour), End: now.Add(4 * time.Hour)}
	require.NoError(t, repo.Create(db, &entity.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		StartAt:   cancelledWindow.Start,
		EndAt:     cancelledWindow.End,
		WindowKey: cancelledWindow.Key(),
		Status:    entity.AppointmentStatusCancelledByAdmin,
	}))

	tests := []struct {
		name    string
		doctor  uuid.UUID
		window  entity.Window
		exclude *uuid.UUID
		want    bool
	}{
		{"same window", doctorID, existing, nil, true},
		{"overlaps start", doctorID, entity.Window{Start: now.Add(30 * time.Minute), End: now.Add(90 * time.Minute)}, nil, true},
		{"inside", doctorID, entity.Window{Start: now.Add(70 * time.Minute), End: now.Add(80 * time.Minute)}, nil, true},
		{"touches end", doctorID, entity.Window{Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)}, nil, false},
		{"touches start", doctorID, entity.Window{Start: now.Add(30 * time.Minute), End: now.Add(time.Hour)}, nil, false},
		{"cancelled does not block", doctorID, cancelledWindow, nil, false},
		{"other doctor", uuid.New(), existing, nil, false},
		{"excluded self", doctorID, existing, &booked.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.Check(db, tt.doctor, tt.window, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConflictCheckerRejectsBadWindows(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	checker := NewConflictChecker(clock.NewFake(now), repository.NewAppointmentRepository())
	doctorID := uuid.New()

	_, err := checker.Check(db, doctorID, entity.Window{Start: now.Add(2 * time.Hour), End: now.Add(time.Hour)}, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = checker.Check(db, doctorID, entity.Window{Start: now.Add(time.Hour), End: now.Add(time.Hour)}, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = checker.Check(db, doctorID, entity.Window{Start: now, End: now.Add(time.Hour)}, nil)
	assert.ErrorIs(t, err, ErrWindowNotInFuture)

	_, err = checker.Check(db, doctorID, entity.Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
