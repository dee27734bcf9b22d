package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// errSkip marks a message that can never be processed. It is committed so
// the partition keeps moving.
var errSkip = errors.New("skip message")

// MessageReader is the subset of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// CacheInvalidator drops cached read models touched by an employee's
// activity.
type CacheInvalidator interface {
	InvalidateEmployee(ctx context.Context, employeeID string) error
}

type handlerFunc func(ctx context.Context, msg kafkago.Message) error

func ConsumeLeaveLifecycle(ctx context.Context, reader MessageReader, cache CacheInvalidator, logger *zap.Logger) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	run(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		return HandleLeaveLifecycle(ctx, msg, cache, log)
	})
}

func ConsumeEmployeeLifecycle(ctx context.Context, reader MessageReader, cache CacheInvalidator, logger *zap.Logger) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	run(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		return HandleEmployeeLifecycle(ctx, msg, cache, log)
	})
}

func run(ctx context.Context, reader MessageReader, log *zap.Logger, handle handlerFunc) {
	log.Info("consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped")
				return
			}
			log.Error("fetch message failed", zap.Error(err))
			continue
		}

		if err := handle(ctx, msg); err != nil && !errors.Is(err, errSkip) {
			log.Error("handle message failed",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func HandleLeaveLifecycle(ctx context.Context, msg kafkago.Message, cache CacheInvalidator, log *zap.Logger) error {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.EmployeeID == "" {
		log.Warn("decode leave lifecycle event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		return errSkip
	}

	if err := cache.InvalidateEmployee(ctx, event.EmployeeID); err != nil {
		return err
	}

	log.Info("dashboard invalidated from leave event",
		zap.String("event_type", event.EventType),
		zap.String("leave_id", event.LeaveID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("request_id", event.RequestID),
	)
	return nil
}

func HandleEmployeeLifecycle(ctx context.Context, msg kafkago.Message, cache CacheInvalidator, log *zap.Logger) error {
	var event events.EmployeeRegisteredEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.EmployeeID == "" {
		log.Warn("decode employee lifecycle event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		return errSkip
	}

	if err := cache.InvalidateEmployee(ctx, event.EmployeeID); err != nil {
		return err
	}

	log.Info("dashboard invalidated from employee event",
		zap.String("event_type", event.EventType),
		zap.String("employee_id", event.EmployeeID),
	)
	return nil
}
