package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/cmd/bootstrap"
	"github.com/vramonlinebsc/hms/config"
	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/infrastructure/database"
	"github.com/vramonlinebsc/hms/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)

// run executes one hmsctl invocation. Each invocation builds and closes its
// own core, like the real binary, so open must connect afresh.
func run(t *testing.T, open func() *gorm.DB, args ...string) (string, error) {
	t.Helper()

	queue := testutil.NewRecordingQueue()
	cmd := newRootCommand(func() (*bootstrap.Core, error) {
		return bootstrap.BuildCore(&config.Config{}, testutil.NewLogger(), clock.NewFake(now), open(), queue), nil
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedElapsedAppointment(t *testing.T, db *gorm.DB) {
	t.Helper()
	window := entity.Window{Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&entity.Appointment{
		DoctorID:  testutil.SeedDoctor(t, db),
		PatientID: testutil.SeedPatient(t, db),
		StartAt:   window.Start,
		EndAt:     window.End,
		WindowKey: window.Key(),
		Status:    entity.AppointmentStatusBooked,
	}).Error)
}

func TestReconcileCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hms.db")
	open := func() *gorm.DB {
		db, err := database.NewSQLiteConnection(path, "test")
		require.NoError(t, err)
		return db
	}

	db := open()
	require.NoError(t, database.Migrate(db))
	seedElapsedAppointment(t, db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	out, err := run(t, open, "reconcile", "--format", "json")
	require.NoError(t, err)

	var result map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result["transitioned"])

	out, err = run(t, open, "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "marked 0 appointments as NO_SHOW\n", out)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, func() *gorm.DB {
		t.Fatal("core built despite invalid flags")
		return nil
	}, "reconcile", "--format", "yaml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestRoleIDByName(t *testing.T) {
	id, err := roleIDByName(entity.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleIDDoctor, id)

	_, err = roleIDByName("nurse")
	assert.Error(t, err)
}
