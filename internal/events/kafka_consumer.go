package events

import (
	"context"
	"encoding/json"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/events"
	"github.com/ParkEase/service-parking/internal/common/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NoShowMarker moves an unstarted booking to no-show. *application.BookingService implements it.
type NoShowMarker interface {
	MarkNoShow(ctx context.Context, bookingID uuid.UUID) error
}

// ReconciliationConsumer listens to reconciliation requests and marks no-show bookings.
type ReconciliationConsumer struct {
	consumer *kafka.Consumer
	service  NoShowMarker
	logger   *zap.Logger
}

// NewReconciliationConsumer creates a new ReconciliationConsumer.
func NewReconciliationConsumer(
	brokers []string,
	groupID string,
	service NoShowMarker,
	logger *zap.Logger,
) *ReconciliationConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicReconciliation, logger)
	return &ReconciliationConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming reconciliation events. This blocks until the context is cancelled.
func (c *ReconciliationConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ReconciliationConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ReconciliationConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from reconciliation topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.BookingNoShow:
		return c.handleNoShow(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled reconciliation event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ReconciliationConsumer) handleNoShow(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.NoShowRequestedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == uuid.Nil {
		c.logger.Error("failed to parse NoShowRequestedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	err := c.service.MarkNoShow(ctx, evt.BookingID)
	if err == nil {
		c.logger.Info("booking marked no-show from reconciliation",
			zap.String("booking_id", evt.BookingID.String()),
		)
		return nil
	}

	// Store failures are retried. Rejected transitions are dropped.
	if domain.KindOf(err) == domain.KindUnavailable {
		c.logger.Error("failed to mark booking no-show",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Warn("no-show request rejected",
		zap.String("booking_id", evt.BookingID.String()),
		zap.Error(err),
	)
	return nil
}
