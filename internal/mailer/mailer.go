// mailer — внешний коллаборатор доставки писем сброса пароля.
// Сама доставка (SMTP/провайдер) вне зоны ответственности этого сервиса;
// сервис знает только контракт Mailer.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	logctx "github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/pkg/redact"
)

// Mailer отправляет пользователю ссылку для сброса пароля.
// token — одноразовый секрет в открытом виде; реализация встраивает его
// в URL фронтенда и нигде не сохраняет.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// DevMailer — реализация для local/dev окружений: письмо не отправляется,
// факт запроса фиксируется в логе (сам токен в лог не попадает).
type DevMailer struct {
	FrontendURL string
}

// NewDevMailer создаёт DevMailer с базовым URL фронтенда.
func NewDevMailer(frontendURL string) *DevMailer {
	return &DevMailer{FrontendURL: strings.TrimRight(frontendURL, "/")}
}

func (m *DevMailer) SendPasswordReset(ctx context.Context, email, _ string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.FrontendURL, redact.Token())

	logctx.From(ctx).Info("password_reset_mail",
		slog.String("email", redact.Email(email)),
		slog.String("reset_url", resetURL),
	)

	return nil
}
