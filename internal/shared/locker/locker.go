package locker

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock not obtained")

//go:generate mockgen -source=locker.go -destination=mock/locker_mock.go -package=mock
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error)
}

type Releaser interface {
	Release(ctx context.Context) error
}

type redisLocker struct {
	client *redislock.Client
	retry  redislock.RetryStrategy
}

// NewRedisLocker returns a Locker backed by Redis. Obtain retries with a
// linear backoff before giving up with ErrNotObtained.
func NewRedisLocker(rdb *redis.Client, backoff time.Duration, attempts int) Locker {
	return &redisLocker{
		client: redislock.New(rdb),
		retry:  redislock.LimitRetry(redislock.LinearBackoff(backoff), attempts),
	}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

type noopLocker struct{}

type noopRelease struct{}

// NewNoopLocker always grants the lock. Used when Redis is not configured;
// storage-level guards still apply.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Obtain(context.Context, string, time.Duration) (Releaser, error) {
	return noopRelease{}, nil
}

func (noopRelease) Release(context.Context) error {
	return nil
}

// EmployeeBalanceKey is the lock key guarding one employee's balances.
func EmployeeBalanceKey(employeeID string) string {
	return "lock:employee-balance:" + employeeID
}
