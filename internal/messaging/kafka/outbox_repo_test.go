package kafka_test

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func validEvent() kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            "2f1c4c34-2d7b-4c0e-9f57-6f1d1c1a1a01",
		AggregateType: "leave_request",
		AggregateID:   "8d0e6e0c-1f7a-4d58-8d0b-5c3c4f0e2b02",
		EventType:     "leave_applied",
		Topic:         "hr.leave.lifecycle.v1",
		Payload:       []byte(`{"event_type":"leave_applied"}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestValidateOutboxEvent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*kafka.OutboxEvent)
		ok     bool
	}{
		{"success", func(*kafka.OutboxEvent) {}, true},
		{"negative missing id", func(e *kafka.OutboxEvent) { e.ID = "" }, false},
		{"negative missing topic", func(e *kafka.OutboxEvent) { e.Topic = "" }, false},
		{"negative empty payload", func(e *kafka.OutboxEvent) { e.Payload = nil }, false},
		{"negative unknown status", func(e *kafka.OutboxEvent) { e.Status = "queued" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(&e)
			err := kafka.ValidateOutboxEvent(e)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOutboxRepository_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newGormMock(t)
		repo := kafka.NewOutboxRepository(db)

		mock.ExpectExec(`INSERT INTO "outbox_events"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Create(context.Background(), validEvent()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative invalid event skips the insert", func(t *testing.T) {
		db, mock := newGormMock(t)
		repo := kafka.NewOutboxRepository(db)

		e := validEvent()
		e.Topic = ""
		assert.Error(t, repo.Create(context.Background(), e))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_ListPending(t *testing.T) {
	db, mock := newGormMock(t)
	repo := kafka.NewOutboxRepository(db)

	rows := sqlmock.NewRows([]string{"id", "topic", "event_type", "status", "payload"}).
		AddRow("e1", "hr.leave.lifecycle.v1", "leave_applied", kafka.OutboxStatusPending, []byte(`{}`)).
		AddRow("e2", "hr.leave.lifecycle.v1", "leave_approved", kafka.OutboxStatusFailed, []byte(`{}`))
	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE status IN \(\$1,\$2\) AND \(next_retry_at IS NULL OR next_retry_at <= \$3\) ORDER BY created_at ASC LIMIT \$4`).
		WithArgs(kafka.OutboxStatusPending, kafka.OutboxStatusFailed, sqlmock.AnyArg(), 10).
		WillReturnRows(rows)

	events, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, kafka.OutboxStatusFailed, events[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Mark(t *testing.T) {
	t.Run("success mark sent", func(t *testing.T) {
		db, mock := newGormMock(t)
		repo := kafka.NewOutboxRepository(db)

		mock.ExpectExec(`UPDATE "outbox_events" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkSent(context.Background(), "e1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative mark failed surfaces db error", func(t *testing.T) {
		db, mock := newGormMock(t)
		repo := kafka.NewOutboxRepository(db)

		mock.ExpectExec(`UPDATE "outbox_events" SET .*"retry_count"=retry_count \+ 1.* WHERE id = \$\d+`).
			WillReturnError(errors.New("db down"))

		err := repo.MarkFailed(context.Background(), "e1", "broker unavailable")
		assert.EqualError(t, err, "db down")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
