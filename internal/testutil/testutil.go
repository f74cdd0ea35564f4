// Package testutil builds in-memory stores and fixtures for package tests.
package testutil

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/infrastructure/database"
	"github.com/vramonlinebsc/hms/internal/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite store private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSQLiteConnection(":memory:", "test")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewLogger returns a logger that writes nowhere.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// SeedDoctor inserts an active doctor and returns its id.
func SeedDoctor(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := seedUser(t, db, entity.RoleIDDoctor)
	require.NoError(t, db.Create(&entity.DoctorProfile{
		UserID:         user.ID,
		Specialization: "General Practice",
	}).Error)
	return user.ID
}

// SeedPatient inserts a patient and returns its id.
func SeedPatient(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	return seedUser(t, db, entity.RoleIDPatient).ID
}

func seedUser(t *testing.T, db *gorm.DB, roleID int) *entity.User {
	t.Helper()
	active := true
	id := uuid.New()
	user := &entity.User{
		ID:       id,
		RoleID:   roleID,
		Email:    id.String() + "@example.com",
		FullName: "Test User",
		IsActive: &active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// RecordingQueue keeps enqueued jobs in memory and, like asynq with a TaskID,
// ignores a job whose task id it already holds.
type RecordingQueue struct {
	mu    sync.Mutex
	jobs  map[string]notification.Job
	calls int
	Err   error
}

func NewRecordingQueue() *RecordingQueue {
	return &RecordingQueue{jobs: make(map[string]notification.Job)}
}

func (q *RecordingQueue) Enqueue(ctx context.Context, job notification.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.Err != nil {
		return q.Err
	}
	q.jobs[job.TaskID()] = job
	return nil
}

// Jobs returns the distinct jobs held.
func (q *RecordingQueue) Jobs() []notification.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := make([]notification.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

// Calls counts every Enqueue call, including deduped ones.
func (q *RecordingQueue) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}
