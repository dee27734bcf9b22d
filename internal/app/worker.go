package app

import (
	"context"
	"sync"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka until ctx is cancelled.
func RunWorker(ctx context.Context, cfg Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")
	if err := cfg.RequireKafka(); err != nil {
		return err
	}

	db, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.ConnectTries)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := Migrate(db); err != nil {
		return err
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectTries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(db)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, producer.WorkerConfig{})
	}()

	<-ctx.Done()
	log.Info("worker shutting down")
	wg.Wait()
	return nil
}
