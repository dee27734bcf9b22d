package app

import (
	"context"
	"sync"

	"go-leave/internal/dashboard"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const consumerGroupID = "go-leave-dashboard"

// RunConsumer reads the lifecycle topics and drops the dashboard summaries
// they make stale. It needs Kafka and Redis but no database.
func RunConsumer(ctx context.Context, cfg Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")
	if err := cfg.RequireKafka(); err != nil {
		return err
	}

	var cache *dashboard.Cache
	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectTries)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = dashboard.NewCache(rdb)
	} else {
		log.Warn("REDIS_ADDR not set, events are consumed without invalidation")
	}

	leaveReader := newReader(cfg.KafkaBroker, events.LeaveLifecycleTopic)
	defer leaveReader.Close()
	employeeReader := newReader(cfg.KafkaBroker, events.EmployeeLifecycleTopic)
	defer employeeReader.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumer.ConsumeLeaveLifecycle(ctx, leaveReader, cache, logger)
	}()
	go func() {
		defer wg.Done()
		consumer.ConsumeEmployeeLifecycle(ctx, employeeReader, cache, logger)
	}()

	<-ctx.Done()
	log.Info("consumer shutting down")
	wg.Wait()
	return nil
}

func newReader(broker, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        consumerGroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
}
