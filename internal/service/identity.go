package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lukianos76/project-babel/internal/models"
	logctx "github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// ResolveIdentity разрешает учётные данные запроса в Principal.
// Порядок стратегий фиксирован: сначала API-ключ, затем bearer-токен;
// если предъявлены оба — выигрывает API-ключ. Запрос без учётных данных
// отклоняется с ErrMissingCredential.
func (s *Service) ResolveIdentity(ctx context.Context, apiKey, bearerToken string) (*models.Principal, error) {
	const op = "service.identity.ResolveIdentity"

	if apiKey != "" {
		principal, err := s.resolveAPIKey(ctx, apiKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return principal, nil
	}

	if bearerToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCredential)
	}

	principal, err := s.ValidateAccessToken(bearerToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return principal, nil
}

// resolveAPIKey строит Principal из владельца действующего API-ключа.
// Неизвестный ключ — ErrInvalidCredential, отозванный — ErrRevokedCredential.
func (s *Service) resolveAPIKey(ctx context.Context, apiKey string) (*models.Principal, error) {
	const op = "service.identity.resolveAPIKey"

	lg := logctx.From(ctx)

	key, err := s.storage.APIKeyByToken(ctx, apiKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("apikey_unknown",
				slog.String("op", op),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if key.Revoked {
		lg.Warn("apikey_revoked_use",
			slog.String("op", op),
			slog.String("api_key_id", key.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrRevokedCredential)
	}

	user, err := s.storage.UserByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  user.Roles,
	}, nil
}
