package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DeliveryError is returned once a job has used all of its attempts.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Sender delivers a job through a Transport, retrying transient failures with
// exponential backoff: base, 2*base, 4*base, ... between attempts.
type Sender struct {
	transport   Transport
	maxAttempts int
	backoffBase time.Duration
	log         *logrus.Logger
}

func NewSender(transport Transport, maxAttempts int, backoffBase time.Duration, log *logrus.Logger) *Sender {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Sender{
		transport:   transport,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         log,
	}
}

// Deliver returns nil on success, the permanent error as soon as one is seen,
// ctx.Err() if cancelled while waiting, or a *DeliveryError after the last attempt.
func (s *Sender) Deliver(ctx context.Context, job Job) error {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.transport.Send(ctx, job.Address, job.Subject, job.Body)
		if err == nil {
			if attempt > 1 {
				s.log.Infof("Delivered notification for penalty %s on attempt %d", job.PenaltyID, attempt)
			}
			return nil
		}
		if errors.Is(err, ErrPermanentFailure) {
			s.log.Warnf("Permanent failure delivering notification for penalty %s: %+v", job.PenaltyID, err)
			return err
		}

		lastErr = err
		s.log.Warnf("Attempt %d/%d delivering notification for penalty %s failed: %+v", attempt, s.maxAttempts, job.PenaltyID, err)

		if attempt == s.maxAttempts {
			break
		}
		if err := sleep(ctx, s.backoff(attempt)); err != nil {
			return err
		}
	}

	return &DeliveryError{Attempts: s.maxAttempts, Err: lastErr}
}

func (s *Sender) backoff(attempt int) time.Duration {
	return s.backoffBase * time.Duration(1<<(attempt-1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
