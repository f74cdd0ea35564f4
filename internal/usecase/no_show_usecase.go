package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NoShowUsecase is the reconciler: one pass marks every elapsed BOOKED
// appointment NO_SHOW through the lifecycle engine.
type NoShowUsecase interface {
	RunOnce(ctx context.Context) (int, error)
}

type noShowUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	clock              clock.Clock
	grace              time.Duration
	appointmentRepo    repository.AppointmentRepository
	appointmentUsecase AppointmentUsecase
	listener           NoShowListener
}

func NewNoShowUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	clk clock.Clock,
	grace time.Duration,
	appointmentRepo repository.AppointmentRepository,
	appointmentUsecase AppointmentUsecase,
	listener NoShowListener,
) NoShowUsecase {
	return &noShowUsecase{
		db:                 db,
		log:                log,
		clock:              clk,
		grace:              grace,
		appointmentRepo:    appointmentRepo,
		appointmentUsecase: appointmentUsecase,
		listener:           listener,
	}
}

// RunOnce returns how many appointments this pass moved to NO_SHOW. Rows lost
// to a concurrent sweep or request are skipped and not counted.
func (u *noShowUsecase) RunOnce(ctx context.Context) (int, error) {
	cutoff := u.clock.Now().Add(-u.grace)

	ids, err := u.appointmentRepo.FindBookedEndingBefore(u.db.WithContext(ctx), cutoff)
	if err != nil {
		u.log.Warnf("Failed to find elapsed appointments: %+v", err)
		return 0, apperror.Transient("failed to find elapsed appointments", err)
	}

	count := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		_, changed, err := u.appointmentUsecase.MarkNoShow(ctx, entity.SystemActor, id)
		if err != nil {
			if isLostRace(err) || errors.Is(err, ErrAppointmentNotFound) {
				u.log.Debugf("Skipping appointment %s: %v", id, err)
				continue
			}
			u.log.Warnf("Failed to mark appointment %s as no-show: %+v", id, err)
			errs = append(errs, err)
			continue
		}
		if changed {
			count++
		}
	}

	if count > 0 {
		u.log.Infof("No-show pass marked %d appointments", count)
		if u.listener != nil {
			u.listener.OnNoShow(ctx)
		}
	}

	if len(errs) > 0 {
		return count, errors.Join(errs...)
	}
	return count, nil
}
