// Пакет config — загрузка и валидация конфигурации Content Expiry
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Content Expiry.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Content Expiry ---

	// Глобальная длительность по умолчанию (в месяцах), применяется
	// когда для типа контента нет записи в default_duration_configs
	DefaultDurationMonths int
	// strftime-шаблон даты истечения при экспорте в CSV
	ExportDateFormat string
	// TTL кеша исключений page content по сайту
	ExclusionCacheTTL time.Duration

	// --- Возможности CMS (fail-fast проверка при старте) ---

	// Версионирование включено в CMS (обязательно)
	VersioningEnabled bool
	// Модерация включена в CMS (обязательна, зависит от версионирования)
	ModerationEnabled bool

	// --- IdP / JWT ---

	// URL Keycloak (например, https://keycloak.kryukov.lan)
	KeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Путь к CA-сертификату для TLS-соединений с IdP (опционально)
	CACertPath string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал фонового обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Таймаут readiness-проверки Keycloak
	KeycloakReadinessTimeout time.Duration

	// --- Маппинг групп → ролей ---

	// Группы Keycloak, дающие роль admin (через запятую)
	RoleAdminGroups []string
	// Группы Keycloak, дающие роль readonly (через запятую)
	RoleReadonlyGroups []string

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Отключённые версионирование или модерация — ошибка конфигурации:
// Content Expiry без них работать не может.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CE_PORT — порт HTTP-сервера (по умолчанию 8010)
	cfg.Port, err = getEnvInt("CE_PORT", 8010)
	if err != nil {
		return nil, fmt.Errorf("CE_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CE_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CE_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CE_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CE_LOG_LEVEL: %w", err)
	}

	// CE_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CE_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CE_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// CE_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("CE_DB_HOST")
	if err != nil {
		return nil, err
	}

	// CE_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("CE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CE_DB_PORT: %w", err)
	}

	// CE_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("CE_DB_NAME")
	if err != nil {
		return nil, err
	}

	// CE_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("CE_DB_USER")
	if err != nil {
		return nil, err
	}

	// CE_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("CE_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// CE_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CE_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CE_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Content Expiry ---

	// CE_DEFAULT_DURATION_MONTHS — глобальная длительность (по умолчанию 12)
	cfg.DefaultDurationMonths, err = getEnvInt("CE_DEFAULT_DURATION_MONTHS", 12)
	if err != nil {
		return nil, fmt.Errorf("CE_DEFAULT_DURATION_MONTHS: %w", err)
	}
	if cfg.DefaultDurationMonths < 1 {
		return nil, fmt.Errorf("CE_DEFAULT_DURATION_MONTHS: значение %d должно быть положительным", cfg.DefaultDurationMonths)
	}

	// CE_EXPORT_DATE_FORMAT — strftime-шаблон даты при экспорте
	cfg.ExportDateFormat = getEnvDefault("CE_EXPORT_DATE_FORMAT", "%Y-%m-%d %H:%M")

	// CE_EXCLUSION_CACHE_TTL — TTL кеша исключений (по умолчанию 5m)
	cfg.ExclusionCacheTTL, err = getEnvDuration("CE_EXCLUSION_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CE_EXCLUSION_CACHE_TTL: %w", err)
	}

	// --- Возможности CMS ---

	// CE_VERSIONING_ENABLED — версионирование (по умолчанию true)
	cfg.VersioningEnabled, err = getEnvBool("CE_VERSIONING_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("CE_VERSIONING_ENABLED: %w", err)
	}
	if !cfg.VersioningEnabled {
		return nil, fmt.Errorf("CE_VERSIONING_ENABLED: для Content Expiry требуется включённое версионирование")
	}

	// CE_MODERATION_ENABLED — модерация (по умолчанию true)
	cfg.ModerationEnabled, err = getEnvBool("CE_MODERATION_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("CE_MODERATION_ENABLED: %w", err)
	}
	if !cfg.ModerationEnabled {
		return nil, fmt.Errorf("CE_MODERATION_ENABLED: для Content Expiry требуется включённая модерация")
	}

	// --- IdP / JWT ---

	// CE_KEYCLOAK_URL — обязательный
	cfg.KeycloakURL, err = getEnvRequired("CE_KEYCLOAK_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	// CE_KEYCLOAK_REALM — realm (по умолчанию cms)
	cfg.KeycloakRealm = getEnvDefault("CE_KEYCLOAK_REALM", "cms")

	// CE_JWT_ISSUER — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTIssuer = getEnvDefault("CE_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	// CE_JWT_JWKS_URL — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTJWKSURL = getEnvDefault("CE_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	// CE_CA_CERT_PATH — путь к CA-сертификату IdP (опционально)
	cfg.CACertPath = getEnvDefault("CE_CA_CERT_PATH", "")

	// CE_JWKS_CLIENT_TIMEOUT — таймаут HTTP-клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("CE_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CE_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// CE_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 5m)
	cfg.JWKSRefreshInterval, err = getEnvDuration("CE_JWKS_REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CE_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// CE_JWT_LEEWAY — допустимое отклонение времени JWT (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("CE_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CE_JWT_LEEWAY: %w", err)
	}

	// CE_KEYCLOAK_READINESS_TIMEOUT — таймаут readiness-проверки (по умолчанию 5s)
	cfg.KeycloakReadinessTimeout, err = getEnvDuration("CE_KEYCLOAK_READINESS_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CE_KEYCLOAK_READINESS_TIMEOUT: %w", err)
	}

	// --- Маппинг групп → ролей ---

	// CE_ROLE_ADMIN_GROUPS — группы для роли admin (по умолчанию "cms-admins")
	cfg.RoleAdminGroups = parseCSV(getEnvDefault("CE_ROLE_ADMIN_GROUPS", "cms-admins"))

	// CE_ROLE_READONLY_GROUPS — группы для роли readonly (по умолчанию "cms-editors")
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("CE_ROLE_READONLY_GROUPS", "cms-editors"))

	// --- Мониторинг зависимостей ---

	// CE_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию "cms")
	cfg.DephealthGroup = getEnvDefault("CE_DEPHEALTH_GROUP", "cms")

	// CE_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CE_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CE_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CE_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CE_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CE_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для лейблов dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
