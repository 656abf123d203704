// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"tahanan/config"

	"github.com/go-redis/redis/v8"
)

// WalletCacheClient holds derived wallet balances. The Mongo entry log is
// the only ground truth; every key here is rebuildable from it.
var WalletCacheClient *redis.Client

// InitWalletCache initializes the Redis client for wallet balance caching.
func InitWalletCache() {
	WalletCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisWalletDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := WalletCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Wallet Cache): %v", err)
	}
}

// GetWalletCacheClient returns the wallet cache client.
func GetWalletCacheClient() *redis.Client {
	if WalletCacheClient == nil {
		InitWalletCache()
	}
	return WalletCacheClient
}
