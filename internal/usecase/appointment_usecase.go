package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/infrastructure/database"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = apperror.NotFound("appointment not found")
	ErrDoctorNotAvailable  = apperror.NotFound("doctor not available")
	ErrWindowTaken         = apperror.Conflict("doctor already has an appointment in this window")
	ErrTransitionLost      = apperror.Conflict("appointment was changed by a concurrent request")
	ErrNotBooked           = apperror.IllegalTransition("appointment is no longer booked")
	ErrNotEnded            = apperror.IllegalTransition("appointment window has not ended")
	ErrAlreadyStarted      = apperror.IllegalTransition("appointment window has already started")
	ErrOutcomeRequired     = apperror.Validation("diagnosis and treatment are required")
	ErrUnknownStatus       = apperror.Validation("unknown appointment status")
	ErrRequesterRequired   = apperror.Validation("appointments are booked by patients")
)

// NoShowListener is told, after commit, that appointments entered NO_SHOW.
// Its failures never undo the transition.
type NoShowListener interface {
	OnNoShow(ctx context.Context)
}

// BookRequest is a patient's request for a doctor's window.
type BookRequest struct {
	DoctorID uuid.UUID
	Window   entity.Window
}

// AppointmentUsecase owns booking and every lifecycle transition. Transition
// methods return the appointment, whether this call changed it, and an error.
// Replaying a transition that already happened is a success with changed=false.
type AppointmentUsecase interface {
	Book(ctx context.Context, actor entity.Actor, req BookRequest) (*entity.Appointment, error)
	Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	List(ctx context.Context, actor entity.Actor, filter entity.AppointmentFilter) ([]entity.Appointment, error)

	Complete(ctx context.Context, actor entity.Actor, id uuid.UUID, diagnosis, treatment string) (*entity.Appointment, bool, error)
	CancelByAdmin(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error)
	CancelByRequester(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error)
	CancelByResource(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error)
	MarkNoShow(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	clock           clock.Clock
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
	conflictChecker service.ConflictChecker
	auditService    service.AuditService
	noShowListener  NoShowListener
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	clk clock.Clock,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	conflictChecker service.ConflictChecker,
	auditService service.AuditService,
	noShowListener NoShowListener,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		clock:           clk,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		conflictChecker: conflictChecker,
		auditService:    auditService,
		noShowListener:  noShowListener,
	}
}

// Book creates a BOOKED appointment.
//
// Flow:
// 1. Validate the window against the clock
// 2. Lock the doctor row, so bookings for one doctor serialize
// 3. Check for overlap inside the same transaction
// 4. Insert; the unique index on (doctor_id, window_key) catches what slips through
// 5. Audit and commit
func (u *appointmentUsecase) Book(ctx context.Context, actor entity.Actor, req BookRequest) (*entity.Appointment, error) {
	if actor.Role != entity.RolePatient || actor.ID == uuid.Nil {
		return nil, ErrRequesterRequired
	}
	if err := service.ValidateWindow(req.Window, u.clock); err != nil {
		return nil, err
	}
	window := req.Window.Normalize()
	if !window.IsValid() {
		return nil, service.ErrInvalidWindow
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperror.Transient("failed to start transaction", tx.Error)
	}
	defer tx.Rollback()

	doctor, err := u.doctorRepo.FindByUserIDForUpdate(tx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to lock doctor %s: %+v", req.DoctorID, err)
		return nil, apperror.Transient("failed to load doctor", err)
	}
	if doctor == nil || !doctor.IsBookable() {
		return nil, ErrDoctorNotAvailable
	}

	conflict, err := u.conflictChecker.Check(tx, req.DoctorID, req.Window, nil)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindValidation {
			return nil, err
		}
		u.log.Warnf("Failed to check conflicts for doctor %s: %+v", req.DoctorID, err)
		return nil, apperror.Transient("failed to check conflicts", err)
	}
	if conflict {
		return nil, ErrWindowTaken
	}

	appointment := &entity.Appointment{
		DoctorID:  req.DoctorID,
		PatientID: actor.ID,
		StartAt:   window.Start,
		EndAt:     window.End,
		WindowKey: window.Key(),
		Status:    entity.AppointmentStatusBooked,
	}
	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if database.IsDuplicateKeyError(err) {
			return nil, ErrWindowTaken
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, apperror.Transient("failed to create appointment", err)
	}

	metadata := entity.JSON{
		"doctor_id":  appointment.DoctorID.String(),
		"patient_id": appointment.PatientID.String(),
		"start_at":   appointment.StartAt.Format(time.RFC3339),
		"end_at":     appointment.EndAt.Format(time.RFC3339),
	}
	if err := u.auditService.Log(ctx, tx, actor, entity.AuditActionBooked, entity.AuditEntityAppointment, appointment.ID.String(), metadata); err != nil {
		return nil, apperror.Transient("failed to write audit log", err)
	}

	if err := tx.Commit().Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return nil, ErrWindowTaken
		}
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, apperror.Transient("failed to commit appointment", err)
	}

	u.log.Infof("Appointment booked: id=%s, doctor=%s, patient=%s", appointment.ID, appointment.DoctorID, appointment.PatientID)
	return appointment, nil
}

func (u *appointmentUsecase) Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, apperror.Transient("failed to load appointment", err)
	}
	if appointment == nil || !appointment.IsVisibleTo(actor) {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// List scopes the filter to the actor: patients and doctors only see their own.
func (u *appointmentUsecase) List(ctx context.Context, actor entity.Actor, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, ErrUnknownStatus
	}

	switch actor.Role {
	case entity.RoleAdmin, entity.RoleSystem:
	case entity.RoleDoctor:
		id := actor.ID
		filter.DoctorID = &id
	case entity.RolePatient:
		id := actor.ID
		filter.PatientID = &id
	default:
		return []entity.Appointment{}, nil
	}

	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx), &filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, apperror.Transient("failed to list appointments", err)
	}
	return appointments, nil
}

func (u *appointmentUsecase) Complete(ctx context.Context, actor entity.Actor, id uuid.UUID, diagnosis, treatment string) (*entity.Appointment, bool, error) {
	if diagnosis == "" || treatment == "" {
		return nil, false, ErrOutcomeRequired
	}
	return u.transition(ctx, actor, id, transition{
		target: entity.AppointmentStatusCompleted,
		allows: ownedByDoctor,
		guard: func(a *entity.Appointment, now time.Time) error {
			if now.Before(a.EndAt) {
				return ErrNotEnded
			}
			return nil
		},
		fields: map[string]interface{}{
			"diagnosis": diagnosis,
			"treatment": treatment,
		},
	})
}

// CancelByAdmin has no time restriction.
func (u *appointmentUsecase) CancelByAdmin(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error) {
	return u.transition(ctx, actor, id, transition{
		target: entity.AppointmentStatusCancelledByAdmin,
		allows: isAdmin,
	})
}

func (u *appointmentUsecase) CancelByRequester(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error) {
	return u.transition(ctx, actor, id, transition{
		target: entity.AppointmentStatusCancelledByRequester,
		allows: ownedByPatient,
		guard:  beforeStart,
	})
}

func (u *appointmentUsecase) CancelByResource(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error) {
	return u.transition(ctx, actor, id, transition{
		target: entity.AppointmentStatusCancelledByResource,
		allows: ownedByDoctor,
		guard:  beforeStart,
	})
}

// MarkNoShow is driven by the reconciler (system actor) or an admin. It needs
// now strictly after the window end.
func (u *appointmentUsecase) MarkNoShow(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, bool, error) {
	appointment, changed, err := u.transition(ctx, actor, id, transition{
		target: entity.AppointmentStatusNoShow,
		allows: func(a *entity.Appointment, actor entity.Actor) bool {
			return actor.Role == entity.RoleSystem || actor.IsAdmin()
		},
		guard: func(a *entity.Appointment, now time.Time) error {
			if !now.After(a.EndAt) {
				return ErrNotEnded
			}
			return nil
		},
	})
	// The reconciler batches its own notification.
	if changed && u.noShowListener != nil && actor.Role != entity.RoleSystem {
		u.noShowListener.OnNoShow(ctx)
	}
	return appointment, changed, err
}

type transition struct {
	target entity.AppointmentStatus
	// allows reports whether the actor may drive this transition on a.
	allows func(a *entity.Appointment, actor entity.Actor) bool
	// guard checks time rules; nil means none.
	guard  func(a *entity.Appointment, now time.Time) error
	fields map[string]interface{}
}

func isAdmin(a *entity.Appointment, actor entity.Actor) bool {
	return actor.IsAdmin()
}

func ownedByDoctor(a *entity.Appointment, actor entity.Actor) bool {
	return actor.Role == entity.RoleDoctor && a.DoctorID == actor.ID
}

func ownedByPatient(a *entity.Appointment, actor entity.Actor) bool {
	return actor.Role == entity.RolePatient && a.PatientID == actor.ID
}

func beforeStart(a *entity.Appointment, now time.Time) error {
	if !now.Before(a.StartAt) {
		return ErrAlreadyStarted
	}
	return nil
}

// transition runs one lifecycle step in its own transaction.
//
// The status change is a single conditional write (WHERE status = 'BOOKED').
// When it touches no row another caller won the race; the row is re-read and
// the call reports an idempotent success if the winner reached the same
// target, or a conflict otherwise.
func (u *appointmentUsecase) transition(ctx context.Context, actor entity.Actor, id uuid.UUID, t transition) (*entity.Appointment, bool, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, false, apperror.Transient("failed to start transaction", tx.Error)
	}
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, false, apperror.Transient("failed to load appointment", err)
	}
	if appointment == nil || !appointment.IsVisibleTo(actor) || !t.allows(appointment, actor) {
		return nil, false, ErrAppointmentNotFound
	}

	if appointment.Status == t.target {
		return appointment, false, nil
	}
	if !appointment.IsBooked() {
		return appointment, false, ErrNotBooked
	}
	if t.guard != nil {
		if err := t.guard(appointment, u.clock.Now()); err != nil {
			return appointment, false, err
		}
	}

	rows, err := u.appointmentRepo.TransitionFromBooked(tx, id, t.target, t.fields)
	if err != nil {
		u.log.Warnf("Failed to move appointment %s to %s: %+v", id, t.target, err)
		return nil, false, apperror.Transient("failed to update appointment", err)
	}
	if rows == 0 {
		tx.Rollback()
		return u.resolveLostRace(ctx, id, t.target)
	}

	metadata := entity.JSON{"from": string(entity.AppointmentStatusBooked), "to": string(t.target)}
	if err := u.auditService.Log(ctx, tx, actor, string(t.target), entity.AuditEntityAppointment, id.String(), metadata); err != nil {
		return nil, false, apperror.Transient("failed to write audit log", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, false, apperror.Transient("failed to commit transition", err)
	}

	updated, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil || updated == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", id, err)
		appointment.Status = t.target
		updated = appointment
	}

	u.log.Infof("Appointment %s moved to %s by %s", id, t.target, actor.Role)
	return updated, true, nil
}

func (u *appointmentUsecase) resolveLostRace(ctx context.Context, id uuid.UUID, target entity.AppointmentStatus) (*entity.Appointment, bool, error) {
	current, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		return nil, false, apperror.Transient("failed to reload appointment", err)
	}
	if current == nil {
		return nil, false, ErrAppointmentNotFound
	}
	if current.Status == target {
		return current, false, nil
	}
	return current, false, ErrTransitionLost
}

// isLostRace reports errors a sweep should skip: another transition got there first.
func isLostRace(err error) bool {
	return errors.Is(err, ErrTransitionLost) || errors.Is(err, ErrNotBooked) || errors.Is(err, ErrNotEnded)
}
