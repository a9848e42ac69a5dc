package cartslot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"github.com/redis/go-redis/v9"
)

// RedisSlot keeps each cart as one JSON string under cart:<session>.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a slot backed by client. A ttl of zero stores keys without expiry;
// otherwise the expiry is refreshed on every write.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, ttl: ttl}
}

func (r *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, slotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Put(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, slotKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, slotKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(key string) string {
	return "cart:" + key
}
