package posting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/munim-pos/munim/internal/money"
)

// Cache is a best-effort Redis cache for hot balance and stock reads.
// Posting invalidates touched keys after commit; a miss always falls back to
// the store, so staleness never affects correctness of writes.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache builds a Cache.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func balanceKey(tenant uuid.UUID, code string) string {
	return fmt.Sprintf("posting:bal:%s:%s", tenant, code)
}

func stockKey(tenant uuid.UUID, itemID int64) string {
	return fmt.Sprintf("posting:stock:%s:%d", tenant, itemID)
}

// GetBalance returns the cached balance, if present.
func (c *Cache) GetBalance(ctx context.Context, tenant uuid.UUID, code string) (money.Minor, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, balanceKey(tenant, code)).Result()
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return money.Minor(v), true
}

// SetBalance stores a balance with TTL.
func (c *Cache) SetBalance(ctx context.Context, tenant uuid.UUID, code string, balance money.Minor) {
	if c == nil {
		return
	}
	_ = c.rdb.Set(ctx, balanceKey(tenant, code), strconv.FormatInt(int64(balance), 10), c.ttl).Err()
}

// InvalidateBalance drops a cached balance.
func (c *Cache) InvalidateBalance(ctx context.Context, tenant uuid.UUID, code string) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, balanceKey(tenant, code)).Err()
}

// GetStock returns the cached item quantity, if present.
func (c *Cache) GetStock(ctx context.Context, tenant uuid.UUID, itemID int64) (int64, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, stockKey(tenant, itemID)).Result()
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetStock stores an item quantity with TTL.
func (c *Cache) SetStock(ctx context.Context, tenant uuid.UUID, itemID int64, qty int64) {
	if c == nil {
		return
	}
	_ = c.rdb.Set(ctx, stockKey(tenant, itemID), strconv.FormatInt(qty, 10), c.ttl).Err()
}

// InvalidateStock drops a cached quantity.
func (c *Cache) InvalidateStock(ctx context.Context, tenant uuid.UUID, itemID int64) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, stockKey(tenant, itemID)).Err()
}
