// Package cache holds short-lived shared state: the delivery log that keeps
// notifications from going out twice for the same event.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryLog remembers keys for a limited time
type DeliveryLog interface {
	// FirstSeen records key and reports whether it was not already recorded
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

// NewDeliveryLog returns a Redis-backed log when a client is given, otherwise
// a process-local one
func NewDeliveryLog(client *redis.Client) DeliveryLog {
	if client != nil {
		return NewRedisDeliveryLog(client, "")
	}
	return NewMemoryDeliveryLog()
}
