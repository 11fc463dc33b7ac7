// ratelimit — счётчики запросов публичных эндпоинтов по IP клиента.
// Хранилище счётчиков — Redis; начало окна зашито в ключ, поэтому
// проверка-и-инкремент сводится к одному атомарному INCR: конкурентные
// всплески с одного IP не могут совместно превысить квоту.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited — квота категории исчерпана для данного ключа.
// HTTP-слой маппит её в 429.
var ErrRateLimited = errors.New("rate limit exceeded")

// Категории публичных эндпоинтов, защищаемых лимитером.
const (
	CategoryLogin    = "login"
	CategoryRegister = "register"
	CategoryForgot   = "forgot_password"
)

// Limit — квота: не более Events событий за Window.
type Limit struct {
	Events int
	Window time.Duration
}

// Limiter — контракт лимитера для HTTP-слоя.
type Limiter interface {
	// Allow учитывает одно событие категории для ключа (IP клиента).
	// Возвращает ErrRateLimited при превышении квоты.
	Allow(ctx context.Context, category, key string) error
	// Close закрывает клиент хранилища счётчиков.
	Close() error
}

type redisLimiter struct {
	rdb    *redis.Client
	prefix string
	limits map[string]Limit
}

// New создаёт лимитер поверх Redis (URL вида redis://:pass@host:6379/0).
// Если prefix пустой — используется "rl:". limits — квоты по категориям;
// категория без квоты пропускается без учёта.
func New(redisURL, prefix string, limits map[string]Limit) (Limiter, error) {
	if prefix == "" {
		prefix = "rl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisLimiter{rdb: rdb, prefix: prefix, limits: limits}, nil
}

// NewWithClient — конструктор для тестов и нестандартной настройки клиента.
func NewWithClient(rdb *redis.Client, prefix string, limits map[string]Limit) Limiter {
	if prefix == "" {
		prefix = "rl:"
	}

	return &redisLimiter{rdb: rdb, prefix: prefix, limits: limits}
}

// Ключ фиксированного окна: prefix + категория + ключ + номер окна.
func (l *redisLimiter) key(category, key string, window time.Duration, now time.Time) string {
	slot := now.Unix() / int64(window.Seconds())
	return l.prefix + category + ":" + key + ":" + strconv.FormatInt(slot, 10)
}

func (l *redisLimiter) Allow(ctx context.Context, category, key string) error {
	const op = "ratelimit.Allow"

	limit, ok := l.limits[category]
	if !ok || limit.Events <= 0 {
		return nil
	}

	k := l.key(category, key, limit.Window, time.Now().UTC())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, limit.Window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if incr.Val() > int64(limit.Events) {
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	}

	return nil
}

func (l *redisLimiter) Close() error { return l.rdb.Close() }
