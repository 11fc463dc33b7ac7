package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func mustSaveAPIKey(t *testing.T, st *Storage, userID uuid.UUID, token string) *models.APIKey {
	t.Helper()
	key := &models.APIKey{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Revoked:   false,
	}
	require.NoError(t, st.SaveAPIKey(context.Background(), key))
	return key
}

// TestIntegration_SaveAPIKey_And_GetByToken_OK — happy-path создания и поиска ключа.
func TestIntegration_SaveAPIKey_And_GetByToken_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "apikey-ok@example.com")
	key := mustSaveAPIKey(t, st, u.ID, "token-ok")

	got, err := st.APIKeyByToken(context.Background(), "token-ok")
	require.NoError(t, err)
	require.Equal(t, key.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.False(t, got.Revoked)
}

// TestIntegration_SaveAPIKey_UniqueToken — конфликт уникальности значения токена.
func TestIntegration_SaveAPIKey_UniqueToken(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "apikey-dup@example.com")
	mustSaveAPIKey(t, st, u.ID, "token-dup")

	dup := &models.APIKey{
		ID:        uuid.New(),
		Token:     "token-dup",
		UserID:    u.ID,
		CreatedAt: time.Now().UTC(),
	}
	err := st.SaveAPIKey(context.Background(), dup)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_RevokeAPIKey_Idempotent — отзыв необратим и идемпотентен;
// после отзыва ключ остаётся в листинге, но помечен revoked.
func TestIntegration_RevokeAPIKey_Idempotent(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "apikey-revoke@example.com")
	key := mustSaveAPIKey(t, st, u.ID, "token-revoke")

	require.NoError(t, st.RevokeAPIKey(context.Background(), key.ID))
	// Повторный отзыв — не ошибка.
	require.NoError(t, st.RevokeAPIKey(context.Background(), key.ID))

	got, err := st.APIKeyByToken(context.Background(), "token-revoke")
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

// TestIntegration_RevokeAPIKey_Unknown — отзыв несуществующего ключа даёт ErrNotFound.
func TestIntegration_RevokeAPIKey_Unknown(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	err := st.RevokeAPIKey(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_ListAPIKeys — листинг возвращает все ключи, включая отозванные.
func TestIntegration_ListAPIKeys(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "apikey-list@example.com")
	a := mustSaveAPIKey(t, st, u.ID, "token-list-a")
	b := mustSaveAPIKey(t, st, u.ID, "token-list-b")
	require.NoError(t, st.RevokeAPIKey(context.Background(), b.ID))

	keys, err := st.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 2)

	byID := map[uuid.UUID]models.APIKey{}
	for _, k := range keys {
		byID[k.ID] = k
	}
	require.False(t, byID[a.ID].Revoked)
	require.True(t, byID[b.ID].Revoked)
}
