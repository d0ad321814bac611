package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

const keyPrefix = "clinic-admin:deletion:"

// Снимаем только свою метку: если TTL истек и ключ занял другой экземпляр, его не трогаем
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Продлеваем только свою метку
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard - guard для нескольких экземпляров сервиса. Пока удаление идет,
// метка продлевается каждую треть TTL, так что длинный каскад ее не теряет.
// TTL страхует от зависшей метки, если процесс упал посреди каскада.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger out.LoggerPort

	mu   sync.Mutex
	held map[string]*heldMarker
}

type heldMarker struct {
	token string
	stop  chan struct{}
	done  chan struct{}
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, logger out.LoggerPort) *RedisGuard {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisGuard{
		client: client,
		ttl:    ttl,
		logger: logger,
		held:   make(map[string]*heldMarker),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, keyPrefix+key, token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		g.logger.Debug("guard.redis.busy", out.LogFields{
			"key": key,
		})
		return false, nil
	}

	marker := &heldMarker{
		token: token,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	g.mu.Lock()
	g.held[key] = marker
	g.mu.Unlock()

	go g.keepAlive(key, marker)

	return true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	marker, ok := g.held[key]
	delete(g.held, key)
	g.mu.Unlock()

	if !ok {
		return nil
	}

	close(marker.stop)
	<-marker.done

	if err := releaseScript.Run(ctx, g.client, []string{keyPrefix + key}, marker.token).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

func (g *RedisGuard) keepAlive(key string, marker *heldMarker) {
	defer close(marker.done)

	interval := g.ttl / 3
	if interval <= 0 {
		interval = g.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-marker.stop:
			return
		case <-ticker.C:
			extended, err := extendScript.Run(context.Background(), g.client,
				[]string{keyPrefix + key}, marker.token, g.ttl.Milliseconds()).Int()
			if err != nil {
				if errors.Is(err, redis.ErrClosed) {
					return
				}
				g.logger.Warn("guard.redis.extend_failed", out.LogFields{
					"key":   key,
					"error": err.Error(),
				})
				continue
			}
			if extended == 0 {
				// Метка истекла и, возможно, занята другим экземпляром
				g.logger.Warn("guard.redis.marker_lost", out.LogFields{
					"key": key,
				})
				return
			}
		}
	}
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
