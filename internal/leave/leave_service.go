package leave

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/employee"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/database"
	"go-leave/internal/shared/locker"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 50 * time.Millisecond
	defaultLockTTL      = 5 * time.Second
)

var tracer = otel.Tracer("go-leave/internal/leave")

type Service interface {
	Apply(ctx context.Context, p domain.Principal, req ApplyLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, p domain.Principal, id string) error
	Decide(ctx context.Context, p domain.Principal, id string, d Decision, req DecideLeaveRequest) (LeaveResponse, error)
	GetBalance(ctx context.Context, p domain.Principal) (BalanceResponse, error)
	ListMine(ctx context.Context, p domain.Principal) ([]LeaveResponse, error)
	ListAll(ctx context.Context, p domain.Principal) ([]LeaveResponse, error)
	ListPending(ctx context.Context, p domain.Principal) ([]LeaveResponse, error)
	GetByID(ctx context.Context, p domain.Principal, id string) (LeaveResponse, error)
}

type service struct {
	tx     database.Transactor
	repo   Repository
	ledger employee.Ledger
	outbox kafka.OutboxRepository
	locker locker.Locker
	now    func() time.Time
	logger *zap.Logger

	maxAttempts  int
	retryBackoff time.Duration
	lockTTL      time.Duration
}

type Option func(*service)

func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func WithLocker(l locker.Locker) Option {
	return func(s *service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetry bounds how many times a decision is attempted when it hits a
// concurrency conflict. The n-th retry waits n*backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

func NewService(tx database.Transactor, repo Repository, ledger employee.Ledger, opts ...Option) Service {
	s := &service{
		tx:           tx,
		repo:         repo,
		ledger:       ledger,
		locker:       locker.NewNoopLocker(),
		now:          time.Now,
		logger:       zap.L().Named("leave.service"),
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
		lockTTL:      defaultLockTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) log(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) Apply(ctx context.Context, p domain.Principal, req ApplyLeaveRequest) (LeaveResponse, error) {
	ctx, span := tracer.Start(ctx, "leave.Apply", trace.WithAttributes(
		attribute.String("employee.id", p.ID.String()),
		attribute.String("leave.category", req.Category),
	))
	defer span.End()

	log := s.log(ctx)
	log.Debug("apply leave requested",
		zap.String("employee_id", p.ID.String()),
		zap.String("category", req.Category),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	category, startDate, endDate, totalDays, err := validateApplyRequest(req)
	if err != nil {
		log.Warn("apply leave validation failed", zap.Error(err))
		return LeaveResponse{}, recordError(span, err)
	}

	balances, err := s.ledger.Balances(ctx, p.ID)
	if err != nil {
		log.Error("apply leave balance lookup failed", zap.Error(err))
		return LeaveResponse{}, recordError(span, err)
	}
	if !balances.CheckSufficient(category, totalDays) {
		log.Warn("apply leave insufficient balance",
			zap.String("employee_id", p.ID.String()),
			zap.String("category", string(category)),
			zap.Int("requested", totalDays),
			zap.Int("available", balances.Of(category)),
		)
		return LeaveResponse{}, recordError(span, leaveerrors.ErrInsufficientBalance)
	}

	now := s.now().UTC()
	l := &LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: p.ID,
		Category:   category,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  totalDays,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
			log.Error("apply leave persist failed", zap.Error(err))
			return err
		}
		return s.enqueue(ctx, tx, events.EventLeaveApplied, p, l)
	})
	if err != nil {
		return LeaveResponse{}, recordError(span, mapRepositoryError(err))
	}

	log.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", p.ID.String()),
		zap.Int("total_days", totalDays),
	)
	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, p domain.Principal, id string) error {
	ctx, span := tracer.Start(ctx, "leave.Cancel", trace.WithAttributes(
		attribute.String("leave.id", id),
	))
	defer span.End()

	log := s.log(ctx)
	log.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", p.ID.String()),
	)

	leaveID, err := uuid.Parse(id)
	if err != nil {
		return recordError(span, leaveerrors.ErrInvalidLeaveID)
	}

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		l, err := qtx.FindByID(ctx, leaveID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if !CanCancel(p, l) {
			log.Warn("cancel leave forbidden",
				zap.String("leave_id", id),
				zap.String("actor_id", p.ID.String()),
				zap.String("owner_id", l.EmployeeID.String()),
			)
			return leaveerrors.ErrForbidden
		}
		if l.Status.Terminal() {
			return leaveerrors.ErrAlreadyFinalized
		}

		next := *l
		next.Status = StatusCancelled
		next.UpdatedAt = s.now().UTC()

		ok, err := qtx.Finalize(ctx, &next)
		if err != nil {
			log.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
			return err
		}
		if !ok {
			return leaveerrors.ErrAlreadyFinalized
		}
		return s.enqueue(ctx, tx, events.EventLeaveCancelled, p, &next)
	})
	if err != nil {
		return recordError(span, mapRepositoryError(err))
	}

	log.Info("cancel leave success", zap.String("leave_id", id))
	return nil
}

// Decide approves or rejects a pending request. On approval the balance
// debit and the status flip commit together or not at all; conflicts with
// concurrent decisions on the same employee are retried a bounded number
// of times.
func (s *service) Decide(ctx context.Context, p domain.Principal, id string, d Decision, req DecideLeaveRequest) (LeaveResponse, error) {
	ctx, span := tracer.Start(ctx, "leave.Decide", trace.WithAttributes(
		attribute.String("leave.id", id),
		attribute.String("leave.decision", string(d)),
	))
	defer span.End()

	log := s.log(ctx)
	log.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", p.ID.String()),
		zap.String("decision", string(d)),
	)

	if !CanDecide(p) {
		log.Warn("decide leave forbidden",
			zap.String("leave_id", id),
			zap.String("actor_id", p.ID.String()),
			zap.String("role", string(p.Role)),
		)
		return LeaveResponse{}, recordError(span, leaveerrors.ErrForbidden)
	}
	if d != DecisionApprove && d != DecisionReject {
		return LeaveResponse{}, recordError(span, leaveerrors.ErrInvalidDecision)
	}
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, recordError(span, leaveerrors.ErrInvalidLeaveID)
	}

	var resp LeaveResponse
	for attempt := 1; ; attempt++ {
		resp, err = s.decideOnce(ctx, log, p, leaveID, d, req)
		if err == nil || !errors.Is(err, leaveerrors.ErrConcurrencyConflict) || attempt >= s.maxAttempts {
			break
		}

		log.Warn("decide leave conflict, retrying",
			zap.String("leave_id", id),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))

		if waitErr := sleepCtx(ctx, time.Duration(attempt)*s.retryBackoff); waitErr != nil {
			return LeaveResponse{}, recordError(span, waitErr)
		}
	}
	if err != nil {
		return LeaveResponse{}, recordError(span, err)
	}

	log.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", string(resp.Status)),
	)
	return resp, nil
}

func (s *service) decideOnce(
	ctx context.Context,
	log *zap.Logger,
	p domain.Principal,
	leaveID uuid.UUID,
	d Decision,
	req DecideLeaveRequest,
) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status.Terminal() {
		return LeaveResponse{}, leaveerrors.ErrAlreadyFinalized
	}

	if d == DecisionApprove {
		release, err := s.lockEmployee(ctx, log, l.EmployeeID)
		if err != nil {
			return LeaveResponse{}, err
		}
		defer release()
	}

	now := s.now().UTC()
	next := *l
	next.Status = d.Status()
	next.DecidedBy = &p.ID
	next.DecidedAt = &now
	next.UpdatedAt = now
	if note := strings.TrimSpace(req.DecisionNote); note != "" {
		next.DecisionNote = &note
	}

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).Finalize(ctx, &next)
		if err != nil {
			log.Error("decide leave persist failed", zap.String("leave_id", leaveID.String()), zap.Error(err))
			return err
		}
		if !ok {
			return leaveerrors.ErrAlreadyFinalized
		}

		if d == DecisionApprove {
			remaining, err := s.ledger.WithTx(tx).Debit(ctx, l.EmployeeID, l.Category, l.TotalDays)
			if err != nil {
				if errors.Is(err, leaveerrors.ErrInsufficientBalance) {
					log.Warn("approve leave insufficient balance",
						zap.String("leave_id", leaveID.String()),
						zap.String("employee_id", l.EmployeeID.String()),
						zap.String("category", string(l.Category)),
						zap.Int("requested", l.TotalDays),
						zap.Int("available", remaining),
					)
				}
				return err
			}
			log.Debug("approve leave debited",
				zap.String("employee_id", l.EmployeeID.String()),
				zap.String("category", string(l.Category)),
				zap.Int("remaining", remaining),
			)
		}

		eventType := events.EventLeaveRejected
		if d == DecisionApprove {
			eventType = events.EventLeaveApproved
		}
		return s.enqueue(ctx, tx, eventType, p, &next)
	})
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(next), nil
}

// lockEmployee takes the per-employee balance lock. A busy or unreachable
// lock is logged and skipped: the conditional debit still guards the
// balance, so contention alone never fails an affordable approval.
func (s *service) lockEmployee(ctx context.Context, log *zap.Logger, employeeID uuid.UUID) (func(), error) {
	key := locker.EmployeeBalanceKey(employeeID.String())
	lock, err := s.locker.Obtain(ctx, key, s.lockTTL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, locker.ErrNotObtained) {
			log.Warn("employee balance lock busy, continuing without it", zap.String("key", key))
		} else {
			log.Warn("employee balance lock unavailable", zap.String("key", key), zap.Error(err))
		}
		return func() {}, nil
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release employee balance lock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *service) GetBalance(ctx context.Context, p domain.Principal) (BalanceResponse, error) {
	balances, err := s.ledger.Balances(ctx, p.ID)
	if err != nil {
		return BalanceResponse{}, err
	}

	resp := BalanceResponse{
		EmployeeID: p.ID.String(),
		Balances:   make(map[string]int, len(employee.Categories)),
	}
	for c, days := range balances.Map() {
		resp.Balances[string(c)] = days
	}
	return resp, nil
}

func (s *service) ListMine(ctx context.Context, p domain.Principal) ([]LeaveResponse, error) {
	leaves, err := s.repo.ListByEmployee(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListAll(ctx context.Context, p domain.Principal) ([]LeaveResponse, error) {
	if !CanDecide(p) {
		return nil, leaveerrors.ErrForbidden
	}
	leaves, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPending(ctx context.Context, p domain.Principal) ([]LeaveResponse, error) {
	if !CanDecide(p) {
		return nil, leaveerrors.ErrForbidden
	}
	leaves, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, p domain.Principal, id string) (LeaveResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if !CanView(p, l) {
		return LeaveResponse{}, leaveerrors.ErrForbidden
	}
	return mapToResponse(*l), nil
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, eventType string, p domain.Principal, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		ActorID:    p.ID.String(),
		Category:   string(l.Category),
		TotalDays:  l.TotalDays,
		Status:     string(l.Status),
		OccurredAt: l.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.log(ctx).Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func validateApplyRequest(req ApplyLeaveRequest) (employee.Category, time.Time, time.Time, int, error) {
	category, ok := employee.ParseCategory(req.Category)
	if !ok {
		return "", time.Time{}, time.Time{}, 0, leaveerrors.ErrInvalidCategory
	}
	if strings.TrimSpace(req.Reason) == "" {
		return "", time.Time{}, time.Time{}, 0, leaveerrors.ErrReasonRequired
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, 0, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, 0, err
	}
	totalDays, err := TotalDays(startDate, endDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, 0, err
	}
	return category, startDate, endDate, totalDays, nil
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:           l.ID.String(),
		EmployeeID:   l.EmployeeID.String(),
		Category:     string(l.Category),
		StartDate:    l.StartDate.Format(dateLayout),
		EndDate:      l.EndDate.Format(dateLayout),
		TotalDays:    l.TotalDays,
		Reason:       l.Reason,
		Status:       l.Status,
		DecisionNote: l.DecisionNote,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
	}
	if l.Employee != nil {
		resp.Employee = &EmployeeSummary{
			ID:    l.Employee.ID.String(),
			Name:  l.Employee.Name,
			Email: l.Employee.Email,
		}
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
