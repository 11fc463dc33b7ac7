package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — данные refresh-токена для управления сессиями.
//
// В БД хранится только хэш значения (sha256 -> base64url); сам секрет
// отдаётся клиенту один раз при выпуске. IP и UserAgent — метаданные
// клиента на момент выпуска (мульти-девайс: у пользователя может быть
// несколько одновременно действующих токенов).
type RefreshToken struct {
	ID               uuid.UUID
	RefreshTokenHash string
	UserID           uuid.UUID
	CreatedAt        time.Time
	ExpiresAt        time.Time
	Revoked          bool
	IP               string
	UserAgent        string
}
