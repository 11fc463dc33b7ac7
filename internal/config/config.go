// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Mailer    MailerConfig    `yaml:"mailer"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// MailerConfig — параметры писем сброса пароля.
type MailerConfig struct {
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки основного HTTP-сервера.
// TrustProxy включает определение IP клиента по X-Forwarded-For и должен
// быть true только когда сервис стоит за доверенным reverse-proxy:
// заголовок приходит от клиента и без прокси подделывается свободно.
type HTTPConfig struct {
	Host       string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port       string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	TrustProxy bool   `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY" env-default:"false"`
}

// MetricsConfig — сетевые настройки служебного сервера (/metrics, /livez, /healthz).
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"9090"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (m MetricsConfig) Addr() string {
	return net.JoinHostPort(m.Host, m.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl" env:"RESET_TOKEN_TTL" env-default:"1h"`
	Issuer          string        `yaml:"issuer"   env:"ISSUER" env-default:"project-babel"`
	Audience        []string      `yaml:"audience" env:"AUDIENCE" env-default:"project-babel-api"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RateLimitConfig — квоты публичных эндпоинтов и адрес счётчика (Redis).
// Значения по умолчанию: login 5/мин, register 3/час, forgot-password 3/час.
// FailOpen задаёт поведение при недоступности счётчика: true — запросы
// пропускаются, false — отклоняются.
type RateLimitConfig struct {
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
	FailOpen       bool          `yaml:"fail_open" env:"RL_FAIL_OPEN" env-default:"true"`
	LoginLimit     int           `yaml:"login_limit" env:"RL_LOGIN_LIMIT" env-default:"5"`
	LoginWindow    time.Duration `yaml:"login_window" env:"RL_LOGIN_WINDOW" env-default:"1m"`
	RegisterLimit  int           `yaml:"register_limit" env:"RL_REGISTER_LIMIT" env-default:"3"`
	RegisterWindow time.Duration `yaml:"register_window" env:"RL_REGISTER_WINDOW" env-default:"1h"`
	ForgotLimit    int           `yaml:"forgot_limit" env:"RL_FORGOT_LIMIT" env-default:"3"`
	ForgotWindow   time.Duration `yaml:"forgot_window" env:"RL_FORGOT_WINDOW" env-default:"1h"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
