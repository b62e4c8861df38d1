package import_service

import (
	"context"
	"sync"
	"time"

	"vendor-inventory-import/conf"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// KeyLocker mutual exclusion per composite key
type KeyLocker interface {
	// Lock blocks until the key is held or ctx ends. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// NewKeyLocker picks the redis backend when configured and connected
func NewKeyLocker(backend string, client *redis.Client, ttl time.Duration) KeyLocker {
	if backend == "redis" && client != nil {
		return NewRedisKeyLocker(client, ttl)
	}
	if backend == "redis" {
		conf.Log.Warn("Redis lock backend requested but Redis is not connected, using in-process locks")
	}
	return NewLocalKeyLocker()
}

// LocalKeyLocker in-process keyed mutex set
type LocalKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalKeyLocker() *LocalKeyLocker {
	return &LocalKeyLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.release(key, kl)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *LocalKeyLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// RedisKeyLocker distributed per-key lock for several importer replicas
type RedisKeyLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisKeyLocker(client *redis.Client, ttl time.Duration) *RedisKeyLocker {
	return &RedisKeyLocker{client: redislock.New(client), ttl: ttl}
}

func (l *RedisKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "import:reconcile:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 200),
	})
	if err == redislock.ErrNotObtained {
		return nil, errors.Wrapf(err, "lock composite key %s", key)
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && err != redislock.ErrLockNotHeld {
			conf.Log.WithField("key", key).WithError(err).Warn("Failed to release reconcile lock")
		}
	}, nil
}
