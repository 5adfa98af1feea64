package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/viniciosgnr/MMT/internal/logger"
)

// SampleLocker serializes lifecycle operations against a single sample.
// Transition and report validation do read-modify-write sequences on the
// sample row plus its result/history rows; interleaving two of them on the
// same sample corrupts the audit trail. Different samples never contend.
type SampleLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// NewLockerFromEnv returns a Redis-backed locker when REDIS_ADDR is set,
// otherwise an in-process keyed mutex. The in-process form is only safe for
// a single backend instance (dev, tests).
func NewLockerFromEnv(log *logger.Logger) (SampleLocker, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-process sample locks")
		return NewLocalLocker(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisLocker{
		log: log.With("service", "RedisSampleLocker"),
		rdb: rdb,
	}, nil
}

type redisLocker struct {
	log *logger.Logger
	rdb *goredis.Client
}

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := "mmt:sample-lock:" + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire sample lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire sample lock: %w", ctx.Err())
		case <-time.After(lockRetryWait):
		}
	}
	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
			l.log.Warn("Failed to release sample lock", "key", key, "error", err)
		}
	}
	return unlock, nil
}

// LocalLocker is a keyed mutex for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*localEntry{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	unlock := func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
	return unlock, nil
}
