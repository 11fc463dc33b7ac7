package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func mustSaveRefreshToken(t *testing.T, st *Storage, userID uuid.UUID, hash string, expiresAt time.Time) *models.RefreshToken {
	t.Helper()
	rt := &models.RefreshToken{
		ID:               uuid.New(),
		RefreshTokenHash: hash,
		UserID:           userID,
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        expiresAt,
		Revoked:          false,
		IP:               "203.0.113.7",
		UserAgent:        "integration-test",
	}
	require.NoError(t, st.SaveRefreshToken(context.Background(), rt))
	return rt
}

func newReplacement(hash string) *models.RefreshToken {
	now := time.Now().UTC()
	return &models.RefreshToken{
		ID:               uuid.New(),
		RefreshTokenHash: hash,
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Hour),
		IP:               "203.0.113.8",
		UserAgent:        "integration-test-next",
	}
}

// TestIntegration_RotateRefreshToken_OK — активный токен гасится, возвращается
// с метаданными клиента, а замена появляется в БД активной и с user_id
// погашенной записи.
func TestIntegration_RotateRefreshToken_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rotate-ok@example.com")
	rt := mustSaveRefreshToken(t, st, u.ID, "hash-rotate-ok", time.Now().UTC().Add(time.Hour))

	repl := newReplacement("hash-rotate-ok-next")
	got, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, repl, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.True(t, got.Revoked)
	require.Equal(t, "203.0.113.7", got.IP)
	require.Equal(t, "integration-test", got.UserAgent)
	require.Equal(t, u.ID, repl.UserID)

	// Замена активна: её можно погасить следующей ротацией.
	_, err = st.RotateRefreshToken(context.Background(), repl.RefreshTokenHash, newReplacement("hash-rotate-ok-third"), time.Now().UTC())
	require.NoError(t, err)
}

// TestIntegration_RotateRefreshToken_SecondAttemptFails — повторное погашение
// того же токена отклоняется: токен строго одноразовый.
func TestIntegration_RotateRefreshToken_SecondAttemptFails(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rotate-twice@example.com")
	rt := mustSaveRefreshToken(t, st, u.ID, "hash-rotate-twice", time.Now().UTC().Add(time.Hour))

	_, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, newReplacement("hash-rotate-twice-a"), time.Now().UTC())
	require.NoError(t, err)

	_, err = st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, newReplacement("hash-rotate-twice-b"), time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_RotateRefreshToken_InsertFailureRollsBackClaim — если
// вставка замены падает (конфликт хэша), погашение откатывается: исходный
// токен остаётся активным и ротируется следующей попыткой.
func TestIntegration_RotateRefreshToken_InsertFailureRollsBackClaim(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rotate-rollback@example.com")
	rt := mustSaveRefreshToken(t, st, u.ID, "hash-rollback-old", time.Now().UTC().Add(time.Hour))
	mustSaveRefreshToken(t, st, u.ID, "hash-rollback-taken", time.Now().UTC().Add(time.Hour))

	_, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, newReplacement("hash-rollback-taken"), time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Погашение не зафиксировано: токен всё ещё активен.
	got, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, newReplacement("hash-rollback-fresh"), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
}

// TestIntegration_RotateRefreshToken_Concurrent — N конкурентных ротаций одного
// токена: ровно одна успешна, остальные получают ErrNotFound.
func TestIntegration_RotateRefreshToken_Concurrent(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rotate-race@example.com")
	rt := mustSaveRefreshToken(t, st, u.ID, "hash-rotate-race", time.Now().UTC().Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repl := newReplacement("hash-rotate-race-next-" + uuid.NewString())
			_, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, repl, time.Now().UTC())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, storage.ErrNotFound)
			rejected++
		}
	}

	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, rejected)
}

// TestIntegration_RotateRefreshToken_Expired — просроченный токен неотличим от неизвестного.
func TestIntegration_RotateRefreshToken_Expired(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rotate-expired@example.com")
	rt := mustSaveRefreshToken(t, st, u.ID, "hash-rotate-expired", time.Now().UTC().Add(-time.Minute))

	_, err := st.RotateRefreshToken(context.Background(), rt.RefreshTokenHash, newReplacement("hash-rotate-expired-next"), time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_SaveRefreshToken_UniqueHash — конфликт уникальности хэша.
func TestIntegration_SaveRefreshToken_UniqueHash(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rt-unique@example.com")
	mustSaveRefreshToken(t, st, u.ID, "hash-dup", time.Now().UTC().Add(time.Hour))

	dup := &models.RefreshToken{
		ID:               uuid.New(),
		RefreshTokenHash: "hash-dup",
		UserID:           u.ID,
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        time.Now().UTC().Add(time.Hour),
	}

	err := st.SaveRefreshToken(context.Background(), dup)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_DeleteExpiredRefreshTokens — janitor удаляет только просроченные записи.
func TestIntegration_DeleteExpiredRefreshTokens(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rt-janitor@example.com")
	expired := mustSaveRefreshToken(t, st, u.ID, "hash-janitor-expired", time.Now().UTC().Add(-time.Hour))
	active := mustSaveRefreshToken(t, st, u.ID, "hash-janitor-active", time.Now().UTC().Add(time.Hour))

	require.NoError(t, st.DeleteExpiredRefreshTokens(context.Background(), time.Now().UTC()))

	_, err := st.RotateRefreshToken(context.Background(), expired.RefreshTokenHash, newReplacement("hash-janitor-a"), time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.RotateRefreshToken(context.Background(), active.RefreshTokenHash, newReplacement("hash-janitor-b"), time.Now().UTC())
	require.NoError(t, err)
}
