package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"content-scheduler/infrastructure/configuration"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis using configuration.C.RedisClient.
func NewCache(ctx context.Context) (*redis.Client, error) {
	cfg := configuration.C.RedisClient
	if cfg.Host == "" {
		return nil, fmt.Errorf("redis host not configured")
	}
	db, _ := strconv.Atoi(cfg.DatabaseName)
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
