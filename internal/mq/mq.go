// Package mq provides the queue the mail pipeline runs on. The
// identity service publishes outbound-email jobs; the mailworker
// consumes them. Two interchangeable brokers are supported: RabbitMQ
// and Google Cloud Pub/Sub.
package mq

import (
	"context"
	"fmt"

	"github.com/quizdeck/backend/config"
)

// EmailQueue is the channel outbound-email jobs travel on.
const EmailQueue = "outbound-email"

// Message is a broker-agnostic payload delivered to consumers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error nacks the message so
// the broker redelivers it.
type Handler func(ctx context.Context, msg Message) error

// Broker is the queue interface both backends implement.
type Broker interface {
	Publish(ctx context.Context, queue string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, queue string, handler Handler) error
	Close() error
}

// NewBroker selects and constructs the configured broker backend.
func NewBroker(ctx context.Context, cfg config.Config) (Broker, error) {
	switch cfg.MQDriver {
	case "rabbitmq":
		return NewRabbitBroker(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubBroker(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq driver %q", cfg.MQDriver)
	}
}
