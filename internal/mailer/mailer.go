// Package mailer implements the outbound email capability:
// send(recipient, subject, html). The "resend" driver delivers
// synchronously over the Resend HTTP API; the "queue" driver publishes
// a job for the mailworker to deliver.
package mailer

import (
	"context"
	"fmt"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/mq"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Job is the wire format of a queued email.
type Job struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// New constructs the configured mailer. The queue driver needs a
// broker; pass nil when the driver is "resend".
func New(cfg config.Config, broker mq.Broker) (Mailer, error) {
	switch cfg.MailDriver {
	case "resend":
		return NewResendMailer(cfg.Mail)
	case "queue":
		if broker == nil {
			return nil, fmt.Errorf("mail driver %q requires a message broker", cfg.MailDriver)
		}
		return NewQueueMailer(broker), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
}
