// Package lock provides short-lived in-flight guards. A guard held for a key
// makes a second Acquire of the same key fail until the first is released,
// which is how a submit stays "disabled" while its remote call runs.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrHeld = errors.New("operation already in progress")

type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: map[string]struct{}{}}
}

func (g *LocalGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, ErrHeld
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// RedisGuard shares guards across server replicas. The TTL bounds how long a
// crashed holder can block a key.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	k := redisKey(key)
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, k, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = releaseScript.Run(context.Background(), g.client, []string{k}, token).Err()
		})
	}, nil
}

func redisKey(key string) string {
	return "storymap:inflight:" + key
}

// New picks the Redis guard when a client is available.
func New(client *redis.Client, ttl time.Duration) Guard {
	if client == nil {
		return NewLocalGuard()
	}
	return NewRedisGuard(client, ttl)
}
