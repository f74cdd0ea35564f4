package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vramonlinebsc/hms/internal/usecase"
	"github.com/vramonlinebsc/hms/pkg/apperror"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler fires the no-show and penalty passes on fixed intervals. A pass
// still running when its next tick arrives is skipped, not stacked.
type Scheduler struct {
	cron           *cron.Cron
	log            *logrus.Logger
	noShowUsecase  usecase.NoShowUsecase
	penaltyUsecase usecase.PenaltyUsecase
	noShowTimeout  time.Duration
	penaltyTimeout time.Duration
}

func NewScheduler(
	log *logrus.Logger,
	noShowUsecase usecase.NoShowUsecase,
	penaltyUsecase usecase.PenaltyUsecase,
	noShowInterval time.Duration,
	penaltyInterval time.Duration,
) (*Scheduler, error) {
	cronLogger := cron.VerbosePrintfLogger(log)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		log:            log,
		noShowUsecase:  noShowUsecase,
		penaltyUsecase: penaltyUsecase,
		noShowTimeout:  noShowInterval,
		penaltyTimeout: penaltyInterval,
	}

	if _, err := s.cron.AddFunc(every(noShowInterval), s.RunNoShowPass); err != nil {
		return nil, fmt.Errorf("schedule no-show pass: %w", err)
	}
	if _, err := s.cron.AddFunc(every(penaltyInterval), s.RunPenaltyPass); err != nil {
		return nil, fmt.Errorf("schedule penalty pass: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop waits for running passes to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with a pass still running")
	}
}

func (s *Scheduler) RunNoShowPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.noShowTimeout)
	defer cancel()

	count, err := s.noShowUsecase.RunOnce(ctx)
	if err != nil {
		s.log.WithField("retryable", apperror.IsRetryable(err)).Warnf("No-show pass finished with errors (marked %d): %+v", count, err)
		return
	}
	s.log.Debugf("No-show pass marked %d appointments", count)
}

func (s *Scheduler) RunPenaltyPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.penaltyTimeout)
	defer cancel()

	result, err := s.penaltyUsecase.RunOnce(ctx)
	if err != nil {
		s.log.WithField("retryable", apperror.IsRetryable(err)).Warnf("Penalty pass finished with errors (created=%d, enqueued=%d): %+v", result.Created, result.Enqueued, err)
		return
	}
	s.log.Debugf("Penalty pass created=%d, enqueued=%d", result.Created, result.Enqueued)
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
