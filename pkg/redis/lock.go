package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-instance Redis lock with a TTL as the upper bound on
// how long a crashed holder blocks others.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ store.Locker = (*Locker)(nil)

func NewLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *Locker {
	return &Locker{client: client, ttl: ttl, log: log.Named("lock")}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
	}
	if !acquired {
		return nil, store.ErrLocked
	}

	return func() {
		// request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock", zap.String("key", lockKey), zap.Error(err))
		}
	}, nil
}
