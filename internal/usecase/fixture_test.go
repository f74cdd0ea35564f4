package usecase

import (
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	domainRepo "github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/repository"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	clock *clock.Fake
	queue *testutil.RecordingQueue

	appointmentRepo domainRepo.AppointmentRepository
	penaltyRepo     domainRepo.PenaltyRepository
	auditRepo       domainRepo.AuditLogRepository

	appointments AppointmentUsecase
	noShows      NoShowUsecase
	penalties    PenaltyUsecase
	doctors      DoctorUsecase
	auditLogs    AuditLogUsecase

	doctor  entity.Actor
	patient entity.Actor
	admin   entity.Actor
}

type fixtureOption func(*fixture)

// withPenaltyRepo swaps the penalty repository, for fault injection.
func withPenaltyRepo(repo domainRepo.PenaltyRepository) fixtureOption {
	return func(f *fixture) { f.penaltyRepo = repo }
}

// withAppointmentRepo swaps the appointment repository, for fault injection.
func withAppointmentRepo(wrap func(domainRepo.AppointmentRepository) domainRepo.AppointmentRepository) fixtureOption {
	return func(f *fixture) { f.appointmentRepo = wrap(f.appointmentRepo) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		db:              testutil.NewDB(t),
		clock:           clock.NewFake(t0),
		queue:           testutil.NewRecordingQueue(),
		appointmentRepo: repository.NewAppointmentRepository(),
		penaltyRepo:     repository.NewPenaltyRepository(),
		auditRepo:       repository.NewAuditLogRepository(),
	}
	for _, opt := range opts {
		opt(f)
	}

	log := testutil.NewLogger()
	doctorRepo := repository.NewDoctorProfileRepository()
	auditService := service.NewAuditService(log, f.auditRepo)
	checker := service.NewConflictChecker(f.clock, f.appointmentRepo)

	f.penalties = NewPenaltyUsecase(f.db, log, f.penaltyRepo, f.queue, decimal.RequireFromString("10.00"))
	f.appointments = NewAppointmentUsecase(f.db, log, f.clock, f.appointmentRepo, doctorRepo, checker, auditService, f.penalties)
	f.noShows = NewNoShowUsecase(f.db, log, f.clock, 15*time.Minute, f.appointmentRepo, f.appointments, f.penalties)
	f.doctors = NewDoctorUsecase(f.db, log, doctorRepo, auditService)
	f.auditLogs = NewAuditLogUsecase(f.db, log, f.auditRepo)

	f.doctor = entity.NewDoctor(testutil.SeedDoctor(t, f.db))
	f.patient = entity.NewPatient(testutil.SeedPatient(t, f.db))
	f.admin = entity.NewAdmin(uuid.New())
	return f
}

// book books [t0+startIn, t0+startIn+length) for the fixture's patient and doctor.
func (f *fixture) book(t *testing.T, startIn, length time.Duration) *entity.Appointment {
	t.Helper()
	start := t0.Add(startIn)
	a, err := f.appointments.Book(t.Context(), f.patient, BookRequest{
		DoctorID: f.doctor.ID,
		Window:   entity.Window{Start: start, End: start.Add(length)},
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *entity.Appointment {
	t.Helper()
	a, err := f.appointmentRepo.FindByID(f.db, id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func (f *fixture) auditFor(t *testing.T, id uuid.UUID) []entity.AuditLog {
	t.Helper()
	logs, err := f.auditRepo.FindAll(f.db, &entity.AuditLogFilter{
		EntityType: entity.AuditEntityAppointment,
		EntityID:   id.String(),
	})
	require.NoError(t, err)
	return logs
}

func actions(logs []entity.AuditLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.Action
	}
	return out
}
