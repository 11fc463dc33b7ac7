package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lukianos76/project-babel/internal/models"
	logctx "github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/pkg/redact"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// RequestPasswordReset создаёт одноразовый токен сброса и передаёт его
// мейлеру. Анти-энумерация: для несуществующего email ничего не создаётся,
// но вызывающий получает тот же успешный результат, что и для существующего.
//
// Ранее выданные токены того же пользователя специально не отзываются —
// несколько действительных токенов могут сосуществовать.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.reset.RequestPasswordReset"

	lg := logctx.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("password_reset_unknown_email",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateResetToken(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, plain); err != nil {
		lg.Error("password_reset_mail_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(user.Email)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_reset_requested",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return nil
}

// ResetPassword гасит токен сброса и устанавливает новый пароль.
// Погашение и смена пароля — один атомарный блок в хранилище; повторное
// предъявление того же токена даёт ErrInvalidToken, пароль не меняется.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "service.reset.ResetPassword"

	lg := logctx.From(ctx)

	if len(newPassword) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	userID, err := s.storage.RedeemPasswordResetToken(ctx, hashToken(token), hashedPassword, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("password_reset_invalid_token",
				slog.String("op", op),
			)
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_reset_done",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// generateResetToken создаёт запись токена сброса с коротким TTL и возвращает
// секрет в открытом виде.
func (s *Service) generateResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const (
		op          = "service.reset.generateResetToken"
		maxAttempts = 5
	)

	lg := logctx.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			lg.Error("reset_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)

		token := &models.PasswordResetToken{
			ID:        uuid.New(),
			TokenHash: hashToken(plain),
			UserID:    userID,
			ExpiresAt: time.Now().UTC().Add(s.cfg.ResetTokenTTL),
			Used:      false,
		}

		if err := s.storage.SavePasswordResetToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}

			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	return "", fmt.Errorf("%s: %w", op, ErrTokenCollision)
}
