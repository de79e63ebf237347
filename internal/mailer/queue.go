package mailer

import (
	"context"
	"encoding/json"

	"github.com/quizdeck/backend/internal/mq"
)

// QueueMailer publishes email jobs instead of delivering them; the
// mailworker picks them up. Delivery failures are retried by the
// broker's nack/requeue, so only a publish failure surfaces here.
type QueueMailer struct {
	broker mq.Broker
}

func NewQueueMailer(broker mq.Broker) *QueueMailer {
	return &QueueMailer{broker: broker}
}

func (m *QueueMailer) Send(ctx context.Context, to, subject, html string) error {
	data, err := json.Marshal(Job{To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}
	_, err = m.broker.Publish(ctx, mq.EmailQueue, data, nil)
	return err
}
