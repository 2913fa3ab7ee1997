package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("slot lock not acquired")
)

// Locker is used by the booking service to guard the re-check and insert for one slot.
// slot must be expressed in the business location; the key is its wall-clock label.
type Locker interface {
	WithSlotLock(ctx context.Context, slot time.Time, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlotLocker creates a locker that uses one Redis key per slot label.
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisSlotLocker{
		client: client,
		ttl:    ttl,
	}
}

// SlotLabel is the slot as the visitor picked it: business-local date and time.
func SlotLabel(slot time.Time) string {
	return slot.Format("2006-01-02 15:04")
}

func slotKey(slot time.Time) string {
	return "lock:slot:" + slot.Format("2006-01-02:15:04")
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, slot time.Time, fn func(ctx context.Context) error) error {
	key := slotKey(slot)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is being booked", ErrLockNotAcquired, SlotLabel(slot))
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

// NoopLocker runs fn directly. Used when Redis is not available; the database
// exclusion constraint still rejects overlapping appointments.
type NoopLocker struct{}

func (NoopLocker) WithSlotLock(ctx context.Context, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
