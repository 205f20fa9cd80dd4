package redisdb

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lrnlab/apptrack-backend/internal/platform/envutil"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

// NewClient connects to Redis when REDIS_ADDR is set. Returns nil (no cache)
// when the variable is empty; callers must tolerate a nil client.
func NewClient(log *logger.Logger) *redis.Client {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		if log != nil {
			log.Info("REDIS_ADDR not set, session cache disabled")
		}
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if log != nil {
			log.Warn("redis ping failed, session cache disabled", "addr", addr, "error", err)
		}
		_ = client.Close()
		return nil
	}

	if log != nil {
		log.Info("redis connected", "addr", addr)
	}
	return client
}
