// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимается доменная ошибка (сентинелы пакетов service/ratelimit),
// а на выход — корректный HTTP-статус и краткое безопасное message без
// утечки деталей.
//
// Политика раскрытия: ошибки аутентификации и токенных потоков наружу
// отдаются обобщённо (анти-энумерация); детали — только в логах.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/Lukianos76/project-babel/internal/ratelimit"
	"github.com/Lukianos76/project-babel/internal/service"
)

// Локальные ошибки HTTP-слоя (парсинг тела, авторизация по ролям).
var (
	// ErrInvalidArgument — тело запроса не распарсилось или не хватает полей. HTTP 400.
	ErrInvalidArgument = stderrors.New("invalid argument")
	// ErrPermissionDenied — аутентифицированному вызывающему не хватает роли. HTTP 403.
	ErrPermissionDenied = stderrors.New("permission denied")
)

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка — 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := base(err)
	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг доменных сентинелов на HTTP-статус/код/сообщение:
//   - битые входные данные / email / пустой пароль -> 400
//   - невалидный refresh/reset токен -> 400 (подслучаи не раскрываются)
//   - отсутствие/невалидность/отзыв учётных данных -> 401 (обобщённо)
//   - нехватка роли -> 403
//   - неизвестный API-ключ при отзыве -> 404
//   - занятый email -> 409
//   - превышение квоты -> 429
//   - прочее -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, ErrInvalidArgument),
		stderrors.Is(err, service.ErrInvalidEmail),
		stderrors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case stderrors.Is(err, service.ErrInvalidToken):
		return http.StatusBadRequest, "invalid_token", "invalid token"
	case stderrors.Is(err, service.ErrInvalidCredentials),
		stderrors.Is(err, service.ErrMissingCredential),
		stderrors.Is(err, service.ErrInvalidCredential),
		stderrors.Is(err, service.ErrRevokedCredential):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case stderrors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case stderrors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "already exists"
	case stderrors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", "too many requests"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
