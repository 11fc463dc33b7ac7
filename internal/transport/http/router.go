package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/ratelimit"
	"github.com/Lukianos76/project-babel/internal/service"
	"github.com/Lukianos76/project-babel/internal/transport/http/handlers"
	"github.com/Lukianos76/project-babel/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	// TrustProxy — учитывать X-Forwarded-For при определении IP клиента.
	// Включается только за доверенным reverse-proxy.
	TrustProxy bool
	// RateLimitFailOpen — пропускать запросы при недоступности счётчика квот.
	RateLimitFailOpen bool
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
//
// Публичные маршруты (register/login/refresh/forgot/reset) не проходят
// разрешение учётных данных, но защищены лимитером по IP. Всё остальное
// требует аутентификации: сначала X-API-Key, затем Bearer.
func NewRouter(svc *service.Service, limiter ratelimit.Limiter, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),               // безопасно ловим паники
		middleware.RequestID(),             // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.RealIP(opts.TrustProxy), // определяем IP клиента (до лимитера и хендлеров)
		middleware.Logging(opts.Logger),    // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc, limiter, opts)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc, limiter, opts)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service, limiter ratelimit.Limiter, opts Options) {
	limit := func(category string) middleware.Middleware {
		return middleware.RateLimit(limiter, category, opts.RateLimitFailOpen)
	}

	// auth: публичные маршруты, лимитируются по IP.
	r.Group(func(pub chi.Router) {
		pub.With(limit(ratelimit.CategoryRegister)).
			Post("/auth/register", h.RegisterUser)
		pub.With(limit(ratelimit.CategoryLogin)).
			Post("/auth/login", h.LoginUser)
		pub.Post("/auth/refresh", h.RefreshToken)
		pub.With(limit(ratelimit.CategoryForgot)).
			Post("/auth/forgot-password", h.ForgotPassword)
		pub.Post("/auth/reset-password", h.ResetPassword)
	})

	// api-keys: административная поверхность.
	r.Group(func(adm chi.Router) {
		adm.Use(
			middleware.Authenticate(svc),
			middleware.RequireRole(models.RoleAdmin),
		)
		adm.Post("/api-keys", h.CreateAPIKey)
		adm.Post("/api-keys/{id}", h.RevokeAPIKey)
		adm.Get("/api-keys", h.ListAPIKeys)
	})
}
