package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const walletKeyPrefix = "wallet:"

// walletCacheTTL bounds staleness of an abandoned cache key. Every
// confirm/refund keeps the key current while it lives.
const walletCacheTTL = 24 * time.Hour

// BalanceCache is the derived balance index. It is never the source of
// truth: every write to the ledger drops the owner's key, and the next
// read refolds it from the entry log. Adjusting a cached value in place
// was rejected because a concurrent refold can already include the new
// entry, double-applying it.
type BalanceCache interface {
	// Get returns the cached balance and whether a cache entry existed.
	Get(ctx context.Context, userID string) (int64, bool, error)
	// Set stores a freshly folded balance.
	Set(ctx context.Context, userID string, balance int64) error
	// Invalidate drops a cached balance so the next read refolds it.
	Invalidate(ctx context.Context, userID string) error
}

// RedisWalletCache implements BalanceCache on Redis.
type RedisWalletCache struct {
	client *redis.Client
}

// NewRedisWalletCache wraps the wallet Redis client.
func NewRedisWalletCache(client *redis.Client) *RedisWalletCache {
	return &RedisWalletCache{client: client}
}

func walletKey(userID string) string {
	return walletKeyPrefix + userID
}

func (c *RedisWalletCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, walletKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read wallet cache: %w", err)
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt wallet cache value for %s: %w", userID, err)
	}
	return balance, true, nil
}

func (c *RedisWalletCache) Set(ctx context.Context, userID string, balance int64) error {
	if err := c.client.Set(ctx, walletKey(userID), balance, walletCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write wallet cache: %w", err)
	}
	return nil
}

func (c *RedisWalletCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, walletKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate wallet cache: %w", err)
	}
	return nil
}
