package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Lukianos76/project-babel/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/ключ/токен) либо
	// условное обновление не нашло подходящей строки.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/token).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RotateRefreshToken атомарно отзывает refresh-токен, если он всё ещё
	// активен (revoked = FALSE и expires_at > now), и одной транзакцией
	// сохраняет замену: либо фиксируются оба изменения, либо ни одного.
	// Замена наследует user_id отозванной записи. Возвращает отозванную
	// запись. Неизвестный, уже отозванный и просроченный токены неразличимы:
	// во всех трёх случаях возвращается ErrNotFound. При конфликте хэша
	// замены возвращается ErrAlreadyExists, исходный токен остаётся активным.
	RotateRefreshToken(ctx context.Context, oldHash string, replacement *models.RefreshToken, now time.Time) (*models.RefreshToken, error)
	// DeleteExpiredRefreshTokens удаляет все просроченные refresh-токены.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

// APIKeyStorage выполняет операции над API-ключами.
type APIKeyStorage interface {
	// SaveAPIKey сохраняет новый API-ключ.
	SaveAPIKey(ctx context.Context, key *models.APIKey) error
	// APIKeyByToken находит API-ключ по значению токена.
	APIKeyByToken(ctx context.Context, token string) (*models.APIKey, error)
	// RevokeAPIKey помечает ключ отозванным. Идемпотентна: повторный отзыв
	// не является ошибкой; ErrNotFound — только если ключа с таким ID нет.
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
	// ListAPIKeys возвращает все API-ключи.
	ListAPIKeys(ctx context.Context) ([]models.APIKey, error)
}

// PasswordResetTokenStorage выполняет операции над токенами сброса пароля.
type PasswordResetTokenStorage interface {
	// SavePasswordResetToken сохраняет новый токен сброса пароля.
	SavePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	// RedeemPasswordResetToken атомарно гасит токен (used = TRUE, если он
	// ещё действителен) и устанавливает владельцу новый хэш пароля — одной
	// транзакцией. Возвращает ID владельца. Неизвестный, использованный и
	// просроченный токены одинаково дают ErrNotFound.
	RedeemPasswordResetToken(ctx context.Context, hash string, passwordHash string, now time.Time) (uuid.UUID, error)
	// DeleteExpiredResetTokens удаляет все просроченные токены сброса.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	APIKeyStorage
	PasswordResetTokenStorage
	Close()
}
