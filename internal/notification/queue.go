package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Queue hands a job to the background delivery channel. Enqueue must be safe
// to repeat for the same job: delivery is at-least-once.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

type AsynqQueue struct {
	client *asynq.Client
	log    *logrus.Logger
}

func NewAsynqQueue(client *asynq.Client, log *logrus.Logger) *AsynqQueue {
	return &AsynqQueue{
		client: client,
		log:    log,
	}
}

// Enqueue submits the job with MaxRetry(0): retries live in Sender, so asynq
// must not re-run a job that already exhausted its attempts.
func (q *AsynqQueue) Enqueue(ctx context.Context, job Job) error {
	task, err := NewTask(job)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.TaskID(job.TaskID()),
		asynq.MaxRetry(0),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			q.log.Debugf("Notification for penalty %s already queued", job.PenaltyID)
			return nil
		}
		return fmt.Errorf("enqueue notification for penalty %s: %w", job.PenaltyID, err)
	}

	q.log.Infof("Enqueued notification task %s on queue %s", info.ID, info.Queue)
	return nil
}
