package cache

import (
	"context"
	"time"

	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tickLockKey = "content-scheduler:tick-lock"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

type tickLock struct {
	client *redis.Client
	key    string
}

// NewTickLock keeps a scheduler tick exclusive across replicas.
func NewTickLock(client *redis.Client) repository.ITickLock {
	return &tickLock{client: client, key: tickLockKey}
}

func (l *tickLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to release tick lock")
		}
	}
	return release, true, nil
}
