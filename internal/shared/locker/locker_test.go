package locker_test

import (
	"context"
	"testing"
	"time"

	"go-leave/internal/shared/locker"

	"github.com/stretchr/testify/assert"
)

func TestNoopLocker(t *testing.T) {
	ctx := context.Background()
	l := locker.NewNoopLocker()

	first, err := l.Obtain(ctx, "k", time.Second)
	assert.NoError(t, err)
	second, err := l.Obtain(ctx, "k", time.Second)
	assert.NoError(t, err)

	assert.NoError(t, first.Release(ctx))
	assert.NoError(t, second.Release(ctx))
}

func TestEmployeeBalanceKey(t *testing.T) {
	assert.Equal(t, "lock:employee-balance:42", locker.EmployeeBalanceKey("42"))
}
