package notification

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrPermanentFailure marks a send that will never succeed (bad address,
// rejected by the server). Anything else a Transport returns is transient.
var ErrPermanentFailure = errors.New("permanent delivery failure")

type Transport interface {
	Send(ctx context.Context, address, subject, body string) error
}

// LogTransport writes notifications to the log instead of sending them.
type LogTransport struct {
	log *logrus.Logger
}

func NewLogTransport(log *logrus.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(ctx context.Context, address, subject, body string) error {
	if address == "" {
		return ErrPermanentFailure
	}
	t.log.WithFields(logrus.Fields{
		"to":      address,
		"subject": subject,
	}).Info(body)
	return nil
}
