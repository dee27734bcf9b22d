package dashboard

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Cache drops cached summaries. It needs only Redis, so the lifecycle
// consumer can use it without a database connection.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// InvalidateEmployee drops the employee's own summary and the manager-wide
// one, both of which include that employee's requests.
func (c *Cache) InvalidateEmployee(ctx context.Context, employeeID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, SummaryKey(ScopeAll), SummaryKey(employeeID)).Err()
}
