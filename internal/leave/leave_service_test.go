package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	employeeMock "go-leave/internal/employee/mock"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	leaveMock "go-leave/internal/leave/mock"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"
	"go-leave/internal/shared/database"
	"go-leave/internal/shared/locker"
	lockerMock "go-leave/internal/shared/locker/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type serviceDeps struct {
	sql    sqlmock.Sqlmock
	repo   *leaveMock.MockRepository
	ledger *employeeMock.MockLedger
	outbox *kafkaMock.MockOutboxRepository
	locker *lockerMock.MockLocker
	svc    leave.Service
}

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

func newServiceDeps(t *testing.T, opts ...leave.Option) *serviceDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	db, sqlMock := newGormMock(t)

	d := &serviceDeps{
		sql:    sqlMock,
		repo:   leaveMock.NewMockRepository(ctrl),
		ledger: employeeMock.NewMockLedger(ctrl),
		outbox: kafkaMock.NewMockOutboxRepository(ctrl),
		locker: lockerMock.NewMockLocker(ctrl),
	}
	base := []leave.Option{
		leave.WithOutbox(d.outbox),
		leave.WithLocker(d.locker),
		leave.WithClock(func() time.Time { return fixedNow }),
		leave.WithRetry(3, 0),
	}
	d.svc = leave.NewService(database.NewTransactor(db), d.repo, d.ledger, append(base, opts...)...)
	return d
}

// expectOutbox asserts one lifecycle event of the given type is written
// through the transaction.
func (d *serviceDeps) expectOutbox(t *testing.T, eventType string) {
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev kafka.OutboxEvent) error {
		assert.Equal(t, eventType, ev.EventType)
		assert.Equal(t, events.LeaveLifecycleTopic, ev.Topic)

		var payload events.LeaveLifecycleEvent
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, ev.AggregateID, payload.LeaveID)
		return nil
	})
}

func employeePrincipal() domain.Principal {
	return domain.Principal{ID: uuid.New(), Role: domain.RoleEmployee}
}

func managerPrincipal() domain.Principal {
	return domain.Principal{ID: uuid.New(), Role: domain.RoleManager}
}

func pendingLeave(owner uuid.UUID, c employee.Category, days int) *leave.LeaveRequest {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &leave.LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: owner,
		Category:   c,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, days-1),
		TotalDays:  days,
		Reason:     "flu",
		Status:     leave.StatusPending,
		CreatedAt:  fixedNow,
		UpdatedAt:  fixedNow,
	}
}

type releaser struct{ released bool }

func (r *releaser) Release(context.Context) error {
	r.released = true
	return nil
}

func TestService_Apply(t *testing.T) {
	ctx := context.Background()
	validReq := leave.ApplyLeaveRequest{
		Category:  "sick",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-04",
		Reason:    "  flu  ",
	}

	t.Run("success creates pending request", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.DefaultBalances(), nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, p.ID, l.EmployeeID)
			assert.Equal(t, leave.StatusPending, l.Status)
			assert.Equal(t, "flu", l.Reason)
			return nil
		})
		d.expectOutbox(t, events.EventLeaveApplied)
		d.sql.ExpectCommit()

		resp, err := d.svc.Apply(ctx, p, validReq)

		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalDays)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "sick", resp.Category)
		assert.Equal(t, "2026-03-02", resp.StartDate)
		assert.Equal(t, "2026-03-04", resp.EndDate)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("success single day request", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.Balances{Casual: 1}, nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		d.expectOutbox(t, events.EventLeaveApplied)
		d.sql.ExpectCommit()

		resp, err := d.svc.Apply(ctx, p, leave.ApplyLeaveRequest{
			Category: "casual", StartDate: "2026-03-02", EndDate: "2026-03-02", Reason: "errand",
		})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.TotalDays)
	})

	validationCases := []struct {
		name string
		req  leave.ApplyLeaveRequest
		want error
	}{
		{"negative invalid category", leave.ApplyLeaveRequest{Category: "vacation", StartDate: "2026-03-02", EndDate: "2026-03-04", Reason: "x"}, leaveerrors.ErrInvalidCategory},
		{"negative invalid date format", leave.ApplyLeaveRequest{Category: "sick", StartDate: "03/02/2026", EndDate: "2026-03-04", Reason: "x"}, leaveerrors.ErrInvalidDateFormat},
		{"negative end before start", leave.ApplyLeaveRequest{Category: "sick", StartDate: "2026-03-04", EndDate: "2026-03-02", Reason: "x"}, leaveerrors.ErrInvalidDateRange},
		{"negative blank reason", leave.ApplyLeaveRequest{Category: "sick", StartDate: "2026-03-02", EndDate: "2026-03-04", Reason: "   "}, leaveerrors.ErrReasonRequired},
	}
	for _, tc := range validationCases {
		t.Run(tc.name, func(t *testing.T) {
			d := newServiceDeps(t)

			_, err := d.svc.Apply(ctx, employeePrincipal(), tc.req)

			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("negative insufficient balance creates nothing", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.Balances{Sick: 2}, nil)

		_, err := d.svc.Apply(ctx, p, validReq)

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.Balances{}, employeeerrors.ErrEmployeeNotFound)

		_, err := d.svc.Apply(ctx, p, validReq)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("negative persist failure rolls back", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()
		dbErr := errors.New("insert failed")

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.DefaultBalances(), nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dbErr)
		d.sql.ExpectRollback()

		_, err := d.svc.Apply(ctx, p, validReq)

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success owner cancels pending", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()
		l := pendingLeave(p.ID, employee.CategoryAnnual, 2)

		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, next *leave.LeaveRequest) (bool, error) {
			assert.Equal(t, leave.StatusCancelled, next.Status)
			return true, nil
		})
		d.expectOutbox(t, events.EventLeaveCancelled)
		d.sql.ExpectCommit()

		err := d.svc.Cancel(ctx, p, l.ID.String())

		require.NoError(t, err)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("negative not owner", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)

		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.sql.ExpectRollback()

		err := d.svc.Cancel(ctx, managerPrincipal(), l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	})

	t.Run("negative already decided", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()
		l := pendingLeave(p.ID, employee.CategoryAnnual, 2)
		l.Status = leave.StatusApproved

		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.sql.ExpectRollback()

		err := d.svc.Cancel(ctx, p, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyFinalized)
	})

	t.Run("negative lost race to decision", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()
		l := pendingLeave(p.ID, employee.CategoryAnnual, 2)

		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(false, nil)
		d.sql.ExpectRollback()

		err := d.svc.Cancel(ctx, p, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyFinalized)
	})

	t.Run("negative not found", func(t *testing.T) {
		d := newServiceDeps(t)
		id := uuid.New()

		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)
		d.sql.ExpectRollback()

		err := d.svc.Cancel(ctx, employeePrincipal(), id.String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("negative malformed id", func(t *testing.T) {
		d := newServiceDeps(t)

		err := d.svc.Cancel(ctx, employeePrincipal(), "abc")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("success approve debits balance", func(t *testing.T) {
		d := newServiceDeps(t)
		mgr := managerPrincipal()
		l := pendingLeave(uuid.New(), employee.CategorySick, 3)
		lock := &releaser{}

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.locker.EXPECT().Obtain(gomock.Any(), locker.EmployeeBalanceKey(l.EmployeeID.String()), gomock.Any()).Return(lock, nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, next *leave.LeaveRequest) (bool, error) {
			assert.Equal(t, leave.StatusApproved, next.Status)
			require.NotNil(t, next.DecidedBy)
			assert.Equal(t, mgr.ID, *next.DecidedBy)
			return true, nil
		})
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger)
		d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategorySick, 3).Return(7, nil)
		d.expectOutbox(t, events.EventLeaveApproved)
		d.sql.ExpectCommit()

		resp, err := d.svc.Decide(ctx, mgr, l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{DecisionNote: " ok "})

		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		require.NotNil(t, resp.DecisionNote)
		assert.Equal(t, "ok", *resp.DecisionNote)
		require.NotNil(t, resp.DecidedAt)
		assert.True(t, lock.released)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("success reject leaves balance untouched", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil)
		d.expectOutbox(t, events.EventLeaveRejected)
		d.sql.ExpectCommit()

		resp, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionReject, leave.DecideLeaveRequest{})

		require.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Nil(t, resp.DecisionNote)
	})

	t.Run("negative employee cannot decide", func(t *testing.T) {
		d := newServiceDeps(t)

		_, err := d.svc.Decide(ctx, employeePrincipal(), uuid.NewString(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	})

	t.Run("negative unknown decision", func(t *testing.T) {
		d := newServiceDeps(t)

		_, err := d.svc.Decide(ctx, managerPrincipal(), uuid.NewString(), leave.Decision("maybe"), leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDecision)
	})

	t.Run("negative malformed id", func(t *testing.T) {
		d := newServiceDeps(t)

		_, err := d.svc.Decide(ctx, managerPrincipal(), "nope", leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})

	t.Run("negative not found", func(t *testing.T) {
		d := newServiceDeps(t)
		id := uuid.New()

		d.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := d.svc.Decide(ctx, managerPrincipal(), id.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	for _, status := range []leave.Status{leave.StatusApproved, leave.StatusRejected, leave.StatusCancelled} {
		t.Run("negative already "+string(status), func(t *testing.T) {
			d := newServiceDeps(t)
			l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)
			l.Status = status

			d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)

			_, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

			assert.ErrorIs(t, err, leaveerrors.ErrAlreadyFinalized)
			assert.NoError(t, d.sql.ExpectationsWereMet())
		})
	}

	t.Run("negative finalize lost race", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(false, nil)
		d.sql.ExpectRollback()

		_, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionReject, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyFinalized)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance at approval rolls back", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryCasual, 4)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(&releaser{}, nil)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil)
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger)
		d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategoryCasual, 4).
			Return(1, employeeerrors.ErrInsufficientBalance)
		d.sql.ExpectRollback()

		_, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("success retries after serialization failure", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil).Times(2)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(&releaser{}, nil).Times(2)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo).Times(2)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger).Times(2)
		gomock.InOrder(
			d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategoryAnnual, 2).
				Return(0, &pgconn.PgError{Code: "40001"}),
			d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategoryAnnual, 2).
				Return(13, nil),
		)
		d.expectOutbox(t, events.EventLeaveApproved)

		d.sql.ExpectBegin()
		d.sql.ExpectRollback()
		d.sql.ExpectBegin()
		d.sql.ExpectCommit()

		resp, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("negative conflict after retries exhausted", func(t *testing.T) {
		d := newServiceDeps(t, leave.WithRetry(2, 0))
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 2)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil).Times(2)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(&releaser{}, nil).Times(2)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo).Times(2)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger).Times(2)
		d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategoryAnnual, 2).
			Return(0, &pgconn.PgError{Code: "40P01"}).Times(2)
		d.sql.ExpectBegin()
		d.sql.ExpectRollback()
		d.sql.ExpectBegin()
		d.sql.ExpectRollback()

		_, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, leaveerrors.ErrConcurrencyConflict)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("success proceeds when lock is held elsewhere", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategorySick, 1)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, locker.ErrNotObtained)
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil)
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger)
		d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategorySick, 1).Return(9, nil)
		d.expectOutbox(t, events.EventLeaveApproved)
		d.sql.ExpectCommit()

		resp, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("negative cancelled context while waiting for lock", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategorySick, 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, context.Canceled)

		_, err := d.svc.Decide(cctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, d.sql.ExpectationsWereMet())
	})

	t.Run("success proceeds when lock service is unreachable", func(t *testing.T) {
		d := newServiceDeps(t)
		l := pendingLeave(uuid.New(), employee.CategoryAnnual, 1)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil)
		d.locker.EXPECT().Obtain(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))
		d.sql.ExpectBegin()
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(true, nil)
		d.ledger.EXPECT().WithTx(gomock.Any()).Return(d.ledger)
		d.ledger.EXPECT().Debit(gomock.Any(), l.EmployeeID, employee.CategoryAnnual, 1).Return(14, nil)
		d.expectOutbox(t, events.EventLeaveApproved)
		d.sql.ExpectCommit()

		_, err := d.svc.Decide(ctx, managerPrincipal(), l.ID.String(), leave.DecisionApprove, leave.DecideLeaveRequest{})

		assert.NoError(t, err)
	})
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("success balance", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.ledger.EXPECT().Balances(gomock.Any(), p.ID).Return(employee.Balances{Annual: 12, Sick: 10, Casual: 5}, nil)

		resp, err := d.svc.GetBalance(ctx, p)

		require.NoError(t, err)
		assert.Equal(t, p.ID.String(), resp.EmployeeID)
		assert.Equal(t, map[string]int{"annual": 12, "sick": 10, "casual": 5}, resp.Balances)
	})

	t.Run("success list mine", func(t *testing.T) {
		d := newServiceDeps(t)
		p := employeePrincipal()

		d.repo.EXPECT().ListByEmployee(gomock.Any(), p.ID).Return([]leave.LeaveRequest{
			*pendingLeave(p.ID, employee.CategorySick, 1),
			*pendingLeave(p.ID, employee.CategoryAnnual, 2),
		}, nil)

		resp, err := d.svc.ListMine(ctx, p)

		require.NoError(t, err)
		assert.Len(t, resp, 2)
	})

	t.Run("success manager lists pending with employee", func(t *testing.T) {
		d := newServiceDeps(t)
		owner := uuid.New()
		l := pendingLeave(owner, employee.CategorySick, 1)
		l.Employee = &employee.Employee{ID: owner, Name: "Bob", Email: "bob@example.com"}

		d.repo.EXPECT().ListPending(gomock.Any()).Return([]leave.LeaveRequest{*l}, nil)

		resp, err := d.svc.ListPending(ctx, managerPrincipal())

		require.NoError(t, err)
		require.Len(t, resp, 1)
		require.NotNil(t, resp[0].Employee)
		assert.Equal(t, "Bob", resp[0].Employee.Name)
	})

	t.Run("negative employee cannot list all or pending", func(t *testing.T) {
		d := newServiceDeps(t)

		_, err := d.svc.ListAll(ctx, employeePrincipal())
		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)

		_, err = d.svc.ListPending(ctx, employeePrincipal())
		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	})

	t.Run("success manager lists all", func(t *testing.T) {
		d := newServiceDeps(t)

		d.repo.EXPECT().ListAll(gomock.Any()).Return([]leave.LeaveRequest{}, nil)

		resp, err := d.svc.ListAll(ctx, managerPrincipal())

		require.NoError(t, err)
		assert.Empty(t, resp)
	})

	t.Run("get by id respects ownership", func(t *testing.T) {
		d := newServiceDeps(t)
		owner := employeePrincipal()
		l := pendingLeave(owner.ID, employee.CategorySick, 1)

		d.repo.EXPECT().FindByID(gomock.Any(), l.ID).Return(l, nil).Times(3)

		_, err := d.svc.GetByID(ctx, owner, l.ID.String())
		assert.NoError(t, err)

		_, err = d.svc.GetByID(ctx, managerPrincipal(), l.ID.String())
		assert.NoError(t, err)

		_, err = d.svc.GetByID(ctx, employeePrincipal(), l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	})
}
