package models

import (
	"slices"

	"github.com/google/uuid"
)

// Principal — результат разрешения учётных данных запроса:
// идентичность вызывающего и его роли. Формируется либо из владельца
// API-ключа, либо из claims проверенного access-токена.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Roles  []string
}

// HasRole сообщает, есть ли у принципала указанная роль.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}
