package usecase

import (
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBlacklisted(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.doctors.SetBlacklisted(ctx, f.patient, f.doctor.ID, true)
	require.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = f.doctors.SetBlacklisted(ctx, f.admin, uuid.New(), true)
	require.ErrorIs(t, err, ErrDoctorNotFound)

	resp, err := f.doctors.SetBlacklisted(ctx, f.admin, f.doctor.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.IsBlacklisted)

	// Setting the same value again changes nothing and is not audited.
	_, err = f.doctors.SetBlacklisted(ctx, f.admin, f.doctor.ID, true)
	require.NoError(t, err)

	resp, err = f.doctors.SetBlacklisted(ctx, f.admin, f.doctor.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.IsBlacklisted)

	got, err := f.doctors.GetDoctor(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBlacklisted)

	list, err := f.auditLogs.GetAllAuditLogs(ctx, &entity.AuditLogFilter{EntityType: entity.AuditEntityDoctor})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, entity.AuditActionDoctorBlacklisted, list.Logs[0].Action)
	assert.Equal(t, entity.AuditActionDoctorUnblacklisted, list.Logs[1].Action)
	assert.Equal(t, f.admin.ID, *list.Logs[0].ActorID)
	assert.Equal(t, true, list.Logs[0].Metadata["is_blacklisted"])
}

func TestBlacklistKeepsExistingAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	a := f.book(t, time.Hour, time.Hour)

	_, err := f.doctors.SetBlacklisted(ctx, f.admin, f.doctor.ID, true)
	require.NoError(t, err)

	assert.Equal(t, entity.AppointmentStatusBooked, f.reload(t, a.ID).Status)
	_, changed, err := f.appointments.CancelByResource(ctx, f.doctor, a.ID)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestGetAuditLog(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	a := f.book(t, time.Hour, time.Hour)

	list, err := f.auditLogs.GetAllAuditLogs(ctx, &entity.AuditLogFilter{EntityID: a.ID.String()})
	require.NoError(t, err)
	require.Len(t, list.Logs, 1)

	got, err := f.auditLogs.GetAuditLog(ctx, list.Logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditActionBooked, got.Action)
	assert.Equal(t, a.DoctorID.String(), got.Metadata["doctor_id"])

	_, err = f.auditLogs.GetAuditLog(ctx, list.Logs[0].ID+100)
	require.ErrorIs(t, err, ErrAuditLogNotFound)
}
