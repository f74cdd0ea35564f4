package notification

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/vramonlinebsc/hms/config"
)

type SMTPTransport struct {
	cfg config.SMTPConfig
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, address, subject, body string) error {
	if address == "" || strings.ContainsAny(address, "\r\n") {
		return fmt.Errorf("%w: invalid address %q", ErrPermanentFailure, address)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if t.cfg.User != "" {
		auth = smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
	}

	msg := buildMessage(t.cfg.From, address, subject, body)
	err := smtp.SendMail(net.JoinHostPort(t.cfg.Host, t.cfg.Port), auth, t.cfg.From, []string{address}, msg)
	return classifySMTPError(err)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// classifySMTPError treats 5xx replies as permanent; 4xx replies and network
// errors are transient.
func classifySMTPError(err error) error {
	if err == nil {
		return nil
	}
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 {
		return fmt.Errorf("%w: %v", ErrPermanentFailure, err)
	}
	return err
}
