package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Lukianos76/project-babel/internal/pkg/log"
	"github.com/Lukianos76/project-babel/internal/ratelimit"
	apierrors "github.com/Lukianos76/project-babel/internal/transport/http/errors"
)

type clientIPKey struct{}

// RealIP определяет IP клиента и кладёт его в контекст запроса.
// Заголовок X-Forwarded-For учитывается только при trustProxy = true:
// без доверенного прокси перед сервисом заголовок контролируется самим
// клиентом, и ключевание квот по нему позволяет обходить лимитер
// произвольной подстановкой адресов.
func RealIP(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r)

			if trustProxy {
				if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
					parts := strings.Split(fwd, ",")
					if forwarded := strings.TrimSpace(parts[0]); forwarded != "" {
						ip = forwarded
					}
				}
			}

			ctx := context.WithValue(r.Context(), clientIPKey{}, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit ограничивает частоту запросов по IP клиента для заданной
// категории. Лимит проверяется до хендлера: при превышении запрос
// отклоняется с 429 и не доходит до бизнес-логики. Поведение при отказе
// счётчика задаётся failOpen: true — запрос пропускается (лимитер не
// роняет аутентификацию целиком), false — запрос отклоняется.
func RateLimit(limiter ratelimit.Limiter, category string, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if err := limiter.Allow(r.Context(), category, ip); err != nil {
				if !errors.Is(err, ratelimit.ErrRateLimited) {
					log.From(r.Context()).Error("rate limiter failed", "error", err)

					if failOpen {
						next.ServeHTTP(w, r)
						return
					}

					apierrors.WriteError(w, r, err)
					return
				}

				apierrors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает IP клиента, определённый middleware RealIP.
// Если RealIP не подключён — адрес соединения без порта.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}

	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
