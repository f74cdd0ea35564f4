package usecase

import (
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoShowRunOnce(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	elapsed := f.book(t, time.Hour, time.Hour)
	completed := f.book(t, 2*time.Hour, time.Hour)
	future := f.book(t, 10*time.Hour, time.Hour)

	f.clock.Set(t0.Add(3 * time.Hour))
	_, _, err := f.appointments.Complete(ctx, f.doctor, completed.ID, "flu", "rest")
	require.NoError(t, err)

	// Within the grace period nothing is marked.
	f.clock.Set(elapsed.EndAt.Add(10 * time.Minute))
	count, err := f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, entity.AppointmentStatusBooked, f.reload(t, elapsed.ID).Status)

	f.clock.Set(t0.Add(4 * time.Hour))
	count, err = f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, entity.AppointmentStatusNoShow, f.reload(t, elapsed.ID).Status)
	assert.Equal(t, entity.AppointmentStatusCompleted, f.reload(t, completed.ID).Status)
	assert.Equal(t, entity.AppointmentStatusBooked, f.reload(t, future.ID).Status)

	logs := f.auditFor(t, elapsed.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, string(entity.AppointmentStatusNoShow), logs[1].Action)
	assert.Equal(t, entity.RoleSystem, logs[1].ActorRole)
	assert.Nil(t, logs[1].ActorID)

	count, err = f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, f.auditFor(t, elapsed.ID), 2)
}

func TestNoShowRunOnceTriggersPenalties(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	a := f.book(t, time.Hour, time.Hour)
	b := f.book(t, 2*time.Hour, time.Hour)
	f.clock.Set(t0.Add(5 * time.Hour))

	count, err := f.noShows.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range []entity.Appointment{*a, *b} {
		penalty, err := f.penaltyRepo.FindByAppointmentID(f.db, id.ID)
		require.NoError(t, err)
		require.NotNil(t, penalty)
		assert.True(t, penalty.NotificationSent)
	}
	assert.Len(t, f.queue.Jobs(), 2)
}
