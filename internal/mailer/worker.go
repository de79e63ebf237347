package mailer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/quizdeck/backend/internal/mq"
)

// RunWorker consumes queued email jobs and delivers them with the
// given sender until ctx is cancelled. A send failure nacks the job so
// the broker redelivers it; a malformed job is acked and dropped
// (redelivery cannot fix it).
func RunWorker(ctx context.Context, broker mq.Broker, sender Mailer) error {
	return broker.Subscribe(ctx, mq.EmailQueue, func(ctx context.Context, msg mq.Message) error {
		var job Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Printf("mailworker: dropping malformed job %s: %v", msg.ID, err)
			return nil
		}
		if err := sender.Send(ctx, job.To, job.Subject, job.HTML); err != nil {
			log.Printf("mailworker: send to %s failed: %v", job.To, err)
			return err
		}
		return nil
	})
}
