package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient builds the shared client. One client is created at startup and
// passed to the cache and the checkout lock.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0,
		Protocol:    2,
		DialTimeout: 2 * time.Second,
	})
}
