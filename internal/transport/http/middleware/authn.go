package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/service"
	apierrors "github.com/Lukianos76/project-babel/internal/transport/http/errors"
)

// Заголовок API-ключа. net/http канонизирует имена, поэтому "X-Api-Key"
// от клиента попадает сюда же.
const apiKeyHeader = "X-API-Key"

type principalKey struct{}

// PrincipalFrom возвращает Principal, положенный мидлваром Authenticate.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	return p, ok
}

// IntoPrincipal кладёт Principal в контекст.
func IntoPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Authenticate разрешает учётные данные запроса в Principal и кладёт его
// в контекст. Порядок фиксирован: X-API-Key имеет приоритет над
// Authorization: Bearer — если предъявлены оба, используется ключ.
// Публичные маршруты (login/register/refresh/forgot/reset) этим мидлваром
// не оборачиваются и до разрешения учётных данных не доходят.
func Authenticate(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			bearer := bearerToken(r)

			principal, err := svc.ResolveIdentity(r.Context(), apiKey, bearer)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(IntoPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole пропускает дальше только принципалов с указанной ролью.
// Ставится после Authenticate.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrMissingCredential)
				return
			}

			if !principal.HasRole(role) {
				apierrors.WriteError(w, r, apierrors.ErrPermissionDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken извлекает токен из Authorization: Bearer <...>.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
