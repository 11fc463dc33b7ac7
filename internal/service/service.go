// service содержит бизнес-логику сервиса аутентификации:
// регистрацию/вход пользователей, выпуск и ротацию токенов, сброс пароля,
// управление API-ключами и разрешение учётных данных запроса в Principal.
// Работа с хранилищем идёт через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/Lukianos76/project-babel/internal/config"
	"github.com/Lukianos76/project-babel/internal/mailer"
	"github.com/Lukianos76/project-babel/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// HTTP 401. Сообщение наружу не различает подслучаи.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCredential — запрос к защищённому маршруту без учётных данных
	// (нет ни X-API-Key, ни Bearer-токена). HTTP 401.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential — предъявленный API-ключ неизвестен либо access-токен
	// не проходит проверку (подпись/формат/срок). HTTP 401.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrRevokedCredential — API-ключ существует, но отозван. HTTP 401.
	ErrRevokedCredential = errors.New("revoked credential")

	// ErrInvalidToken — refresh- или reset-токен неизвестен, уже погашен или
	// просрочен; подслучаи наружу неразличимы. HTTP 400.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrNotFound — сущность (API-ключ) не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrTokenCollision — исчерпаны попытки сгенерировать уникальное значение
	// токена (редкий случай коллизий при сохранении в БД после нескольких
	// ретраев). HTTP 500.
	ErrTokenCollision = errors.New("token collision")
)

// Service описывает бизнес-логику сервиса аутентификации.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	mailer  mailer.Mailer
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, mailer mailer.Mailer) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		mailer:  mailer,
	}
}

// AccessTokenTTL возвращает срок действия access-токена
// (HTTP-слой отдаёт его клиенту как expires_in).
func (s *Service) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}
