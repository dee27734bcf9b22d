package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	SummaryKeyPrefix = "dashboard:summary:"
	ScopeAll         = "all"
	DefaultCacheTTL  = time.Minute
)

// SummaryKey is the cache key for one dashboard scope: ScopeAll for
// managers or an employee id.
func SummaryKey(scope string) string {
	return SummaryKeyPrefix + scope
}

type Service interface {
	Summary(ctx context.Context, p domain.Principal) (SummaryResponse, error)
	InvalidateEmployee(ctx context.Context, employeeID string) error
}

type service struct {
	repo   Repository
	ledger employee.Ledger
	rdb    *redis.Client
	cache  *Cache
	sf     *singleflight.Group
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*service)

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
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

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("dashboard.service")
		}
	}
}

// NewService builds the dashboard service. rdb may be nil, in which case
// every summary is computed from the database.
func NewService(repo Repository, ledger employee.Ledger, rdb *redis.Client, opts ...Option) Service {
	s := &service{
		repo:   repo,
		ledger: ledger,
		rdb:    rdb,
		cache:  NewCache(rdb),
		sf:     &singleflight.Group{},
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: zap.L().Named("dashboard.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Summary(ctx context.Context, p domain.Principal) (SummaryResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	scope := p.ID.String()
	if p.IsManager() {
		scope = ScopeAll
	}
	cacheKey := SummaryKey(scope)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var resp SummaryResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				log.Debug("dashboard summary cache hit", zap.String("key", cacheKey))
				return resp, nil
			}
		case !errors.Is(err, redis.Nil):
			log.Warn("dashboard summary cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		resp, err := s.build(ctx, p, scope)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
					log.Warn("dashboard summary cache write failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		log.Error("dashboard summary failed", zap.String("scope", scope), zap.Error(err))
		return SummaryResponse{}, err
	}

	return v.(SummaryResponse), nil
}

func (s *service) build(ctx context.Context, p domain.Principal, scope string) (SummaryResponse, error) {
	filter := &p.ID
	if scope == ScopeAll {
		filter = nil
	}

	resp := SummaryResponse{
		Scope: scope,
		StatusCounts: map[string]int64{
			string(leave.StatusPending):   0,
			string(leave.StatusApproved):  0,
			string(leave.StatusRejected):  0,
			string(leave.StatusCancelled): 0,
		},
		ApprovedDays: make(map[string]int64, len(employee.Categories)),
		GeneratedAt:  s.now().UTC().Format(time.RFC3339),
	}
	for _, c := range employee.Categories {
		resp.ApprovedDays[string(c)] = 0
	}

	counts, err := s.repo.CountByStatus(ctx, filter)
	if err != nil {
		return SummaryResponse{}, err
	}
	for _, row := range counts {
		resp.StatusCounts[row.Status] = row.Total
	}

	days, err := s.repo.ApprovedDaysByCategory(ctx, filter)
	if err != nil {
		return SummaryResponse{}, err
	}
	for _, row := range days {
		resp.ApprovedDays[row.Category] = row.Days
	}

	if scope == ScopeAll {
		n, err := s.repo.CountEmployees(ctx)
		if err != nil {
			return SummaryResponse{}, err
		}
		resp.EmployeeCount = &n
		return resp, nil
	}

	balances, err := s.ledger.Balances(ctx, p.ID)
	if err != nil {
		return SummaryResponse{}, err
	}
	resp.Balances = make(map[string]int, len(employee.Categories))
	for c, d := range balances.Map() {
		resp.Balances[string(c)] = d
	}
	return resp, nil
}

func (s *service) InvalidateEmployee(ctx context.Context, employeeID string) error {
	return s.cache.InvalidateEmployee(ctx, employeeID)
}
