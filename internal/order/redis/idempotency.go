package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-storefront/internal/apperr"
)

const (
	keyPrefix         = "order_idem:"
	pendingMarker     = "pending"
	DefaultTTL        = time.Hour
	DefaultPendingTTL = 2 * time.Minute
)

// Idempotency remembers the result of an order request by its
// Idempotency-Key. A key is reserved with SETNX while the order is being
// created and then replaced by the stored result. The pending marker lives
// for PendingTTL only, so a result that never got stored frees the key soon.
type Idempotency struct {
	Client     *redis.Client
	TTL        time.Duration
	PendingTTL time.Duration
}

func NewIdempotency(client *redis.Client, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	pending := DefaultPendingTTL
	if pending > ttl {
		pending = ttl
	}
	return &Idempotency{Client: client, TTL: ttl, PendingTTL: pending}
}

func redisKey(key string) string {
	return keyPrefix + key
}

// Reserve claims key. When the key was already used it returns the stored
// result and reserved=false. A key still being processed is an InvalidState
// error.
func (i *Idempotency) Reserve(ctx context.Context, key string) (stored []byte, reserved bool, err error) {
	ok, err := i.Client.SetNX(ctx, redisKey(key), pendingMarker, i.PendingTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	val, err := i.Client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = i.Client.SetNX(ctx, redisKey(key), pendingMarker, i.PendingTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return nil, true, nil
		}
		return nil, false, apperr.InvalidState("Order with this Idempotency-Key is already in progress")
	}
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if string(val) == pendingMarker {
		return nil, false, apperr.InvalidState("Order with this Idempotency-Key is already in progress")
	}
	return val, false, nil
}

// Complete stores result under a reserved key for the full TTL.
func (i *Idempotency) Complete(ctx context.Context, key string, result []byte) error {
	if err := i.Client.Set(ctx, redisKey(key), result, i.TTL).Err(); err != nil {
		return fmt.Errorf("store idempotency result: %w", err)
	}
	return nil
}

// Release frees a key whose request failed, so the client may retry it. A
// key that already holds a result is left alone.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	val, err := i.Client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read idempotency key: %w", err)
	}
	if val != pendingMarker {
		return nil
	}
	return i.Client.Del(ctx, redisKey(key)).Err()
}
