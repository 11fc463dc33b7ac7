package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"
)

func TestResolveIdentity_APIKey_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser()
	key := &models.APIKey{ID: uuid.New(), Token: "abc123", UserID: user.ID}

	st.EXPECT().APIKeyByToken(gomock.Any(), "abc123").Return(key, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	principal, err := svc.ResolveIdentity(context.Background(), "abc123", "")
	require.NoError(t, err)
	require.Equal(t, user.ID, principal.UserID)
	require.Equal(t, user.Roles, principal.Roles)
}

func TestResolveIdentity_Bearer_OK(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser()
	at, err := svc.generateAccessToken(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)

	principal, err := svc.ResolveIdentity(context.Background(), "", at)
	require.NoError(t, err)
	require.Equal(t, user.ID, principal.UserID)
}

func TestResolveIdentity_APIKeyWinsOverBearer(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	keyOwner := testUser()
	bearerOwner := &models.User{ID: uuid.New(), Email: "other@example.com", Roles: []string{models.RoleUser}}

	at, err := svc.generateAccessToken(context.Background(), bearerOwner, time.Now().UTC())
	require.NoError(t, err)

	key := &models.APIKey{ID: uuid.New(), Token: "abc123", UserID: keyOwner.ID}
	st.EXPECT().APIKeyByToken(gomock.Any(), "abc123").Return(key, nil)
	st.EXPECT().UserByID(gomock.Any(), keyOwner.ID).Return(keyOwner, nil)

	// Предъявлены обе стратегии — идентичность берётся из API-ключа.
	principal, err := svc.ResolveIdentity(context.Background(), "abc123", at)
	require.NoError(t, err)
	require.Equal(t, keyOwner.ID, principal.UserID)
}

func TestResolveIdentity_InvalidAPIKey_NoBearerFallback(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser()
	at, err := svc.generateAccessToken(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)

	// Битый API-ключ при валидном bearer — всё равно отказ: fallback
	// на вторую стратегию после предъявления первой не выполняется.
	st.EXPECT().APIKeyByToken(gomock.Any(), "bogus").Return(nil, storage.ErrNotFound)

	_, err = svc.ResolveIdentity(context.Background(), "bogus", at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestResolveIdentity_RevokedAPIKey(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	key := &models.APIKey{ID: uuid.New(), Token: "abc123", UserID: uuid.New(), Revoked: true}
	st.EXPECT().APIKeyByToken(gomock.Any(), "abc123").Return(key, nil)

	_, err := svc.ResolveIdentity(context.Background(), "abc123", "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRevokedCredential)
}

func TestResolveIdentity_MissingCredentials(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.ResolveIdentity(context.Background(), "", "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestResolveIdentity_InvalidBearer(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.ResolveIdentity(context.Background(), "", "garbage-token")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredential)
}
