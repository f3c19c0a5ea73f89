package application

import (
	"context"
	"time"

	"github.com/ParkEase/service-parking/internal/common/kafka"
	"go.uber.org/zap"
)

const serviceName = "service-parking"

// TxManager runs fn inside one store transaction. Repositories called with the
// context passed to fn take part in that transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes CloudEvents. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// publishEvent is best effort: a failed publish is logged, never returned.
func publishEvent(ctx context.Context, producer EventPublisher, logger *zap.Logger, topic, eventType, subject string, data interface{}) {
	if producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(serviceName, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := producer.PublishEvent(ctx, topic, cloudEvent.WithSubject(subject)); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
