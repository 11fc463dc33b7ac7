package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Lukianos76/project-babel/internal/models"
	logctx "github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/storage"
)

type accessClaims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// generateAccessToken генерирует подписанный access-токен с идентичностью и ролями.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := logctx.From(ctx)

	claims := accessClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ValidateAccessToken проверяет access-токен и возвращает Principal
// из его claims. Любая причина отказа (подпись, формат, срок) наружу
// отдаётся одинаково как ErrInvalidCredential.
func (s *Service) ValidateAccessToken(tokenStr string) (*models.Principal, error) {
	const op = "service.token.ValidateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
	}

	return &models.Principal{
		UserID: uid,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}

// newRefreshCandidate создаёт кандидата refresh-токена: секрет в открытом
// виде и запись с его хэшем. В БД попадает только хэш.
func (s *Service) newRefreshCandidate(userID uuid.UUID, clientIP, userAgent string) (string, *models.RefreshToken, error) {
	const op = "service.token.newRefreshCandidate"

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	plain := base64.RawURLEncoding.EncodeToString(b)

	now := time.Now().UTC()
	return plain, &models.RefreshToken{
		ID:               uuid.New(),
		RefreshTokenHash: hashToken(plain),
		UserID:           userID,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.RefreshTokenTTL),
		Revoked:          false,
		IP:               clientIP,
		UserAgent:        userAgent,
	}, nil
}

// generateRefreshToken создает новую запись refresh-токена и возвращает
// секрет в открытом виде.
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID, clientIP, userAgent string) (string, error) {
	const (
		op          = "service.token.generateRefreshToken"
		maxAttempts = 5
	)

	lg := logctx.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		plain, token, err := s.newRefreshCandidate(userID, clientIP, userAgent)
		if err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// rotateRefreshToken гасит предъявленный refresh-токен и сохраняет замену
// одним обращением к хранилищу: погашение без существующей замены в БД
// не фиксируется. Погашенная запись никогда не возвращается в активное
// состояние; замена — всегда новая запись, а не мутация старой.
// Возвращает секрет замены и погашенную запись.
func (s *Service) rotateRefreshToken(ctx context.Context, plain, clientIP, userAgent string) (string, *models.RefreshToken, error) {
	const (
		op          = "service.token.rotateRefreshToken"
		maxAttempts = 5
	)

	lg := logctx.From(ctx)
	oldHash := hashToken(plain)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		// user_id замены хранилище берёт из погашаемой записи.
		newPlain, replacement, err := s.newRefreshCandidate(uuid.Nil, clientIP, userAgent)
		if err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}

		claimed, err := s.storage.RotateRefreshToken(ctx, oldHash, replacement, time.Now().UTC())
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия хэша замены — пробуем сгенерировать заново.
				continue
			}
			if errors.Is(err, storage.ErrNotFound) {
				lg.Warn("refresh_claim_rejected",
					slog.String("op", op),
				)
				return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			lg.Error("refresh_rotate_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}

		return newPlain, claimed, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", nil, fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// hashToken — хэш секрета для хранения и поиска (sha256 -> base64url).
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
