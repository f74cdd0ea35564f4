package usecase

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	domainRepo "github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/repository"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// markNoShowDirectly moves an appointment to NO_SHOW without going through the
// usecase, so the penalty pipeline can be driven on its own.
func markNoShowDirectly(t *testing.T, f *fixture, id uuid.UUID) {
	t.Helper()
	rows, err := f.appointmentRepo.TransitionFromBooked(f.db, id, entity.AppointmentStatusNoShow, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func TestPenaltyRunOnce(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	a := f.book(t, time.Hour, time.Hour)
	f.book(t, 3*time.Hour, time.Hour)
	markNoShowDirectly(t, f, a.ID)

	result, err := f.penalties.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PenaltyRunResult{Created: 1, Enqueued: 1}, result)

	penalty, err := f.penaltyRepo.FindByAppointmentID(f.db, a.ID)
	require.NoError(t, err)
	require.NotNil(t, penalty)
	assert.Equal(t, f.patient.ID, penalty.PatientID)
	assert.True(t, penalty.Fee.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, penalty.NotificationSent)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, penalty.ID, jobs[0].PenaltyID)
	assert.Equal(t, a.ID, jobs[0].AppointmentID)
	assert.Equal(t, f.patient.ID.String()+"@example.com", jobs[0].Address)

	result, err = f.penalties.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PenaltyRunResult{}, result)
	assert.Equal(t, 1, f.queue.Calls())

	all, err := f.penalties.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPenaltyEnqueueFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	a := f.book(t, time.Hour, time.Hour)
	markNoShowDirectly(t, f, a.ID)

	f.queue.Err = errors.New("broker unreachable")
	result, err := f.penalties.RunOnce(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, PenaltyRunResult{Created: 1, Enqueued: 0}, result)

	penalty, err := f.penaltyRepo.FindByAppointmentID(f.db, a.ID)
	require.NoError(t, err)
	assert.False(t, penalty.NotificationSent)

	f.queue.Err = nil
	result, err = f.penalties.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PenaltyRunResult{Created: 0, Enqueued: 1}, result)
	assert.Len(t, f.queue.Jobs(), 1)
}

// flakyPenaltyRepo fails the first MarkNotificationSent call, leaving a job
// enqueued but the penalty unflagged.
type flakyPenaltyRepo struct {
	domainRepo.PenaltyRepository
	failures atomic.Int32
}

func (r *flakyPenaltyRepo) MarkNotificationSent(db *gorm.DB, id uuid.UUID) (int64, error) {
	if r.failures.Add(-1) >= 0 {
		return 0, errors.New("connection reset")
	}
	return r.PenaltyRepository.MarkNotificationSent(db, id)
}

func TestPenaltyInterruptedRunDoesNotDuplicate(t *testing.T) {
	flaky := &flakyPenaltyRepo{PenaltyRepository: repository.NewPenaltyRepository()}
	flaky.failures.Store(1)
	f := newFixture(t, withPenaltyRepo(flaky))
	ctx := t.Context()

	a := f.book(t, time.Hour, time.Hour)
	markNoShowDirectly(t, f, a.ID)

	_, err := f.penalties.RunOnce(ctx)
	require.Error(t, err)

	result, err := f.penalties.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PenaltyRunResult{Created: 0, Enqueued: 1}, result)

	// Enqueued twice, held once.
	assert.Equal(t, 2, f.queue.Calls())
	assert.Len(t, f.queue.Jobs(), 1)

	all, err := f.penalties.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].NotificationSent)
}

func TestPenaltyConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	for i := 0; i < 5; i++ {
		a := f.book(t, time.Duration(i+1)*time.Hour, time.Hour)
		markNoShowDirectly(t, f, a.ID)
	}

	results := make(chan PenaltyRunResult, 4)
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			r, err := f.penalties.RunOnce(ctx)
			results <- r
			errs <- err
		}()
	}

	var total PenaltyRunResult
	for i := 0; i < 4; i++ {
		r := <-results
		require.NoError(t, <-errs)
		total.Created += r.Created
		total.Enqueued += r.Enqueued
	}
	assert.Equal(t, PenaltyRunResult{Created: 5, Enqueued: 5}, total)
	assert.Len(t, f.queue.Jobs(), 5)
	assert.Equal(t, 5, f.queue.Calls())
}

// Book, let the window lapse, reconcile, then run the penalty pipeline twice.
func TestNoShowToPenaltyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	a := f.book(t, time.Hour, time.Hour)

	f.clock.Set(a.EndAt.Add(15*time.Minute + time.Second))
	count, err := f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, entity.AppointmentStatusNoShow, f.reload(t, a.ID).Status)

	// The reconciler already ran the pipeline once; a second pass is a no-op.
	result, err := f.penalties.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PenaltyRunResult{}, result)

	all, err := f.penalties.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].AppointmentID)
	assert.True(t, all[0].NotificationSent)
	assert.Len(t, f.queue.Jobs(), 1)
	assert.Equal(t, 1, f.queue.Calls())

	assert.Equal(t, []string{entity.AuditActionBooked, entity.AuditActionNoShow}, actions(f.auditFor(t, a.ID)))

	// Re-running the reconciler finds nothing left to mark.
	count, err = f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, entity.AppointmentStatusNoShow, f.reload(t, a.ID).Status)
	assert.Len(t, f.auditFor(t, a.ID), 2)
	assert.Len(t, f.queue.Jobs(), 1)
	assert.Equal(t, 1, f.queue.Calls())
}
