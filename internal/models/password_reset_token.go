package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken — одноразовый токен сброса пароля.
// В БД хранится хэш значения; Used — односторонний флаг.
type PasswordResetToken struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	Used      bool
}

// IsValid — токен пригоден к погашению: не использован и не просрочен.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
