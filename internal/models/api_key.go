package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey — долгоживущий учётный токен, выдаваемый администратором.
// Не истекает по времени; становится недействительным только после
// отзыва (Revoked — односторонний флаг false -> true).
type APIKey struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	Revoked   bool
}
