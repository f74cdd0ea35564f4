package worker

import (
	"context"
	"fmt"

	"github.com/vramonlinebsc/hms/internal/notification"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// NotificationWorker consumes notification jobs from asynq. Retrying lives in
// notification.Sender, so a failed job is finished with SkipRetry instead of
// being handed back to the queue.
type NotificationWorker struct {
	server *asynq.Server
	sender *notification.Sender
	log    *logrus.Logger
}

func NewNotificationWorker(redisOpt asynq.RedisClientOpt, concurrency int, sender *notification.Sender, log *logrus.Logger) *NotificationWorker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: log,
	})

	return &NotificationWorker{
		server: server,
		sender: sender,
		log:    log,
	}
}

// Start begins processing in the background.
func (w *NotificationWorker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypePenaltyNotification, w.HandlePenaltyNotification)

	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	w.log.Info("Notification worker started")
	return nil
}

func (w *NotificationWorker) Shutdown() {
	w.server.Shutdown()
	w.log.Info("Notification worker stopped")
}

func (w *NotificationWorker) HandlePenaltyNotification(ctx context.Context, task *asynq.Task) error {
	job, err := notification.ParseTask(task)
	if err != nil {
		w.log.Warnf("Dropping malformed notification task: %+v", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.Deliver(ctx, job); err != nil {
		w.log.Warnf("Notification for penalty %s not delivered: %+v", job.PenaltyID, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	w.log.Infof("Notification for penalty %s delivered to %s", job.PenaltyID, job.Address)
	return nil
}
