package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDeliveryKeyPrefix = "helpdesk:delivered:"

// RedisDeliveryLog shares delivered keys between instances
type RedisDeliveryLog struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDeliveryLog wraps an existing client. The client stays owned by the
// caller; Close does not close it.
func NewRedisDeliveryLog(client *redis.Client, keyPrefix string) *RedisDeliveryLog {
	if keyPrefix == "" {
		keyPrefix = defaultDeliveryKeyPrefix
	}
	return &RedisDeliveryLog{client: client, keyPrefix: keyPrefix}
}

// FirstSeen implements DeliveryLog with a single SETNX
func (l *RedisDeliveryLog) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record delivery: %w", err)
	}
	return ok, nil
}

// Close implements DeliveryLog
func (l *RedisDeliveryLog) Close() error {
	return nil
}

var _ DeliveryLog = (*RedisDeliveryLog)(nil)
