package shipping_service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const cooldownKey = "shipping:quote:cooldown"

// Cooldown admits one forwarded quote per window
type Cooldown interface {
	// Take consumes the window or returns *CooldownError with the remaining wait
	Take(ctx context.Context) error
}

// LocalCooldown in-process gate, a token bucket of one token refilled once per window
type LocalCooldown struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	now     func() time.Time
}

// NewLocalCooldown create an in-process cooldown gate
func NewLocalCooldown(window time.Duration) *LocalCooldown {
	return &LocalCooldown{
		limiter: rate.NewLimiter(rate.Every(window), 1),
		now:     time.Now,
	}
}

func (c *LocalCooldown) Take(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &CooldownError{Remaining: delay}
	}
	return nil
}

// RedisCooldown gate shared by every replica through one expiring key
type RedisCooldown struct {
	client redis.UniversalClient
	key    string
	window time.Duration
}

// NewRedisCooldown create a Redis backed cooldown gate
func NewRedisCooldown(client redis.UniversalClient, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, key: cooldownKey, window: window}
}

func (c *RedisCooldown) Take(ctx context.Context) error {
	// The key may expire between SETNX and PTTL; one retry covers it
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := c.client.SetNX(ctx, c.key, time.Now().UnixMilli(), c.window).Result()
		if err != nil {
			return errors.Wrap(err, "cooldown setnx")
		}
		if ok {
			return nil
		}
		ttl, err := c.client.PTTL(ctx, c.key).Result()
		if err != nil {
			return errors.Wrap(err, "cooldown pttl")
		}
		if ttl > 0 {
			return &CooldownError{Remaining: ttl}
		}
		if ttl == -1 {
			// Key without expiry, left by a manual write
			c.client.PExpire(ctx, c.key, c.window)
			return &CooldownError{Remaining: c.window}
		}
	}
	return &CooldownError{Remaining: time.Second}
}
