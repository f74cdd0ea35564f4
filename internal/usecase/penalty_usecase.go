package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/notification"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PenaltyRunResult counts what one pipeline pass actually did.
type PenaltyRunResult struct {
	Created  int `json:"created"`
	Enqueued int `json:"enqueued"`
}

// PenaltyUsecase records one penalty per NO_SHOW appointment and hands one
// notification per penalty to the queue. Every pass can be re-run from scratch.
type PenaltyUsecase interface {
	RunOnce(ctx context.Context) (PenaltyRunResult, error)
	OnNoShow(ctx context.Context)
	List(ctx context.Context) ([]entity.NoShowPenalty, error)
}

type penaltyUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	penaltyRepo repository.PenaltyRepository
	queue       notification.Queue
	fee         decimal.Decimal

	// runMu keeps passes in this process from overlapping; other processes
	// are handled by the unique index and the row locks.
	runMu sync.Mutex
}

func NewPenaltyUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	penaltyRepo repository.PenaltyRepository,
	queue notification.Queue,
	fee decimal.Decimal,
) PenaltyUsecase {
	return &penaltyUsecase{
		db:          db,
		log:         log,
		penaltyRepo: penaltyRepo,
		queue:       queue,
		fee:         fee,
	}
}

// RunOnce runs both phases.
//
// Phase 1: insert-if-absent a penalty for every NO_SHOW appointment lacking one.
// Phase 2: for every penalty not yet notified, lock it, enqueue, flag it sent.
// If the flag write fails after a successful enqueue, the next pass enqueues
// again; the queue dedupes on the penalty id while the first task is live.
func (u *penaltyUsecase) RunOnce(ctx context.Context) (PenaltyRunResult, error) {
	u.runMu.Lock()
	defer u.runMu.Unlock()

	var result PenaltyRunResult

	created, err := u.recordPenalties(ctx)
	result.Created = created
	if err != nil {
		return result, err
	}

	enqueued, err := u.dispatchNotifications(ctx)
	result.Enqueued = enqueued
	if err != nil {
		return result, err
	}

	if result.Created > 0 || result.Enqueued > 0 {
		u.log.Infof("Penalty pass: created=%d, enqueued=%d", result.Created, result.Enqueued)
	}
	return result, nil
}

// OnNoShow reacts to a fresh no-show. Failures are left for the periodic pass.
func (u *penaltyUsecase) OnNoShow(ctx context.Context) {
	if _, err := u.RunOnce(ctx); err != nil {
		u.log.Warnf("Penalty pass after no-show failed, periodic sweep will retry: %+v", err)
	}
}

func (u *penaltyUsecase) List(ctx context.Context) ([]entity.NoShowPenalty, error) {
	penalties, err := u.penaltyRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find penalties: %+v", err)
		return nil, apperror.Transient("failed to list penalties", err)
	}
	return penalties, nil
}

func (u *penaltyUsecase) recordPenalties(ctx context.Context) (int, error) {
	appointments, err := u.penaltyRepo.FindNoShowsWithoutPenalty(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find no-shows without penalty: %+v", err)
		return 0, apperror.Transient("failed to find no-shows", err)
	}

	created := 0
	var errs []error
	for _, appointment := range appointments {
		penalty := &entity.NoShowPenalty{
			AppointmentID: appointment.ID,
			PatientID:     appointment.PatientID,
			Fee:           u.fee,
		}
		rows, err := u.penaltyRepo.InsertIfAbsent(u.db.WithContext(ctx), penalty)
		if err != nil {
			u.log.Warnf("Failed to record penalty for appointment %s: %+v", appointment.ID, err)
			errs = append(errs, err)
			continue
		}
		if rows > 0 {
			created++
		}
	}

	if len(errs) > 0 {
		return created, apperror.Transient("failed to record some penalties", errors.Join(errs...))
	}
	return created, nil
}

func (u *penaltyUsecase) dispatchNotifications(ctx context.Context) (int, error) {
	pending, err := u.penaltyRepo.FindPendingNotifications(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find pending notifications: %+v", err)
		return 0, apperror.Transient("failed to find pending notifications", err)
	}

	enqueued := 0
	var errs []error
	for _, p := range pending {
		sent, err := u.dispatchOne(ctx, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sent {
			enqueued++
		}
	}

	if len(errs) > 0 {
		return enqueued, apperror.Transient("failed to dispatch some notifications", errors.Join(errs...))
	}
	return enqueued, nil
}

// dispatchOne returns false when another pass already owns or finished the penalty.
func (u *penaltyUsecase) dispatchOne(ctx context.Context, p entity.PendingNotification) (bool, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return false, tx.Error
	}
	defer tx.Rollback()

	penalty, err := u.penaltyRepo.LockPending(tx, p.PenaltyID)
	if err != nil {
		u.log.Warnf("Failed to lock penalty %s: %+v", p.PenaltyID, err)
		return false, err
	}
	if penalty == nil {
		return false, nil
	}

	job := notification.NewPenaltyJob(penalty.ID, penalty.AppointmentID, penalty.PatientID, p.Email)
	if err := u.queue.Enqueue(ctx, job); err != nil {
		u.log.Warnf("Failed to enqueue notification for penalty %s: %+v", penalty.ID, err)
		return false, err
	}

	rows, err := u.penaltyRepo.MarkNotificationSent(tx, penalty.ID)
	if err != nil {
		u.log.Warnf("Enqueued penalty %s but failed to flag it sent: %+v", penalty.ID, err)
		return false, err
	}
	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Enqueued penalty %s but failed to commit flag: %+v", penalty.ID, err)
		return false, err
	}
	return rows > 0, nil
}
