package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Роли, используемые при авторизации.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User - модель пользователя в системе.
type User struct {
	ID           uuid.UUID
	Email        string
	Roles        []string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole сообщает, есть ли у пользователя указанная роль.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
