package kafka_middleware

import (
	"context"
	"time"

	"rsvp/pkg/kafka"
	"rsvp/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, topic string, msg kafka.Message, next func(context.Context, kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		args := []any{
			"topic", topic,
			"key", msg.Key,
			"event_id", msg.EventID(),
			"event_type", msg.EventType(),
			"correlation_id", msg.CorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to publish kafka message", append(args, "error", err)...)
			return err
		}
		log.Debug("Published kafka message", args...)
		return nil
	}
}
