package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lukianos76/project-babel/internal/models"
	logctx "github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// CreateAPIKey создаёт новый API-ключ для пользователя и возвращает его
// вместе со значением токена. Значение отдаётся один раз — листинг ключей
// его больше не показывает. Проверка административной роли — обязанность
// вызывающего слоя (маршрутизации).
func (s *Service) CreateAPIKey(ctx context.Context, ownerID uuid.UUID) (*models.APIKey, error) {
	const (
		op          = "service.apikey.CreateAPIKey"
		maxAttempts = 5
	)

	lg := logctx.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			lg.Error("apikey_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		key := &models.APIKey{
			ID:        uuid.New(),
			Token:     hex.EncodeToString(b),
			UserID:    ownerID,
			CreatedAt: time.Now().UTC(),
			Revoked:   false,
		}

		if err := s.storage.SaveAPIKey(ctx, key); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		lg.Info("apikey_created",
			slog.String("op", op),
			slog.String("api_key_id", key.ID.String()),
			slog.String("user_id", ownerID.String()),
		)

		return key, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// RevokeAPIKey отзывает API-ключ. Операция идемпотентна: повторный отзыв
// уже отозванного ключа — успех; неизвестный ID — ErrNotFound.
func (s *Service) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	const op = "service.apikey.RevokeAPIKey"

	if err := s.storage.RevokeAPIKey(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("apikey_revoked",
		slog.String("op", op),
		slog.String("api_key_id", id.String()),
	)

	return nil
}

// ListAPIKeys возвращает все API-ключи для административного листинга.
// Значения токенов маскируются на уровне представления (HTTP-слой их не отдаёт).
func (s *Service) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	const op = "service.apikey.ListAPIKeys"

	keys, err := s.storage.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return keys, nil
}
