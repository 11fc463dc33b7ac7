package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limits map[string]Limit) Limiter {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewWithClient(rdb, "test:", limits)
}

func TestAllow_WithinQuota(t *testing.T) {
	t.Parallel()

	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin: {Events: 5, Window: time.Minute},
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"))
	}
}

func TestAllow_QuotaExceeded(t *testing.T) {
	t.Parallel()

	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin: {Events: 5, Window: time.Minute},
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"))
	}

	// Шестая попытка в том же окне отклоняется.
	err := lim.Allow(ctx, CategoryLogin, "203.0.113.7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin: {Events: 1, Window: time.Minute},
	})

	ctx := context.Background()
	require.NoError(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"))
	require.ErrorIs(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"), ErrRateLimited)

	// Другой IP считается отдельно.
	require.NoError(t, lim.Allow(ctx, CategoryLogin, "198.51.100.1"))
}

func TestAllow_CategoriesAreIndependent(t *testing.T) {
	t.Parallel()

	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin:    {Events: 1, Window: time.Minute},
		CategoryRegister: {Events: 1, Window: time.Hour},
	})

	ctx := context.Background()
	require.NoError(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"))
	require.ErrorIs(t, lim.Allow(ctx, CategoryLogin, "203.0.113.7"), ErrRateLimited)

	// Исчерпание login не трогает квоту register того же IP.
	require.NoError(t, lim.Allow(ctx, CategoryRegister, "203.0.113.7"))
}

func TestAllow_UnknownCategory_Passes(t *testing.T) {
	t.Parallel()

	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin: {Events: 1, Window: time.Minute},
	})

	// Категория без квоты пропускается без учёта.
	for i := 0; i < 10; i++ {
		require.NoError(t, lim.Allow(context.Background(), "unknown", "203.0.113.7"))
	}
}

func TestAllow_ConcurrentBurst_CannotExceedQuota(t *testing.T) {
	t.Parallel()

	const quota = 5
	lim := newTestLimiter(t, map[string]Limit{
		CategoryLogin: {Events: quota, Window: time.Minute},
	})

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- lim.Allow(context.Background(), CategoryLogin, "203.0.113.7")
		}()
	}
	wg.Wait()
	close(results)

	var allowed int
	for err := range results {
		if err == nil {
			allowed++
		} else {
			require.ErrorIs(t, err, ErrRateLimited)
		}
	}

	// Проверка и инкремент атомарны: всплеск не может совместно превысить квоту.
	require.Equal(t, quota, allowed)
}
