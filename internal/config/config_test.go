package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения и возвращает функцию для их очистки.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"CE_DB_HOST":      "localhost",
		"CE_DB_NAME":      "cms_expiry",
		"CE_DB_USER":      "cms",
		"CE_DB_PASSWORD":  "secret",
		"CE_KEYCLOAK_URL": "https://keycloak.kryukov.lan",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8010 {
		t.Errorf("Port = %d, ожидается 8010", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DefaultDurationMonths != 12 {
		t.Errorf("DefaultDurationMonths = %d, ожидается 12", cfg.DefaultDurationMonths)
	}
	if cfg.ExportDateFormat != "%Y-%m-%d %H:%M" {
		t.Errorf("ExportDateFormat = %q, ожидается %%Y-%%m-%%d %%H:%%M", cfg.ExportDateFormat)
	}
	if cfg.ExclusionCacheTTL != 5*time.Minute {
		t.Errorf("ExclusionCacheTTL = %v, ожидается 5m", cfg.ExclusionCacheTTL)
	}
	if !cfg.VersioningEnabled || !cfg.ModerationEnabled {
		t.Error("VersioningEnabled и ModerationEnabled должны быть true по умолчанию")
	}
	if cfg.KeycloakRealm != "cms" {
		t.Errorf("KeycloakRealm = %q, ожидается cms", cfg.KeycloakRealm)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_JWTAutoDerive(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	expectedIssuer := "https://keycloak.kryukov.lan/realms/cms"
	if cfg.JWTIssuer != expectedIssuer {
		t.Errorf("JWTIssuer = %q, ожидается %q", cfg.JWTIssuer, expectedIssuer)
	}

	expectedJWKS := "https://keycloak.kryukov.lan/realms/cms/protocol/openid-connect/certs"
	if cfg.JWTJWKSURL != expectedJWKS {
		t.Errorf("JWTJWKSURL = %q, ожидается %q", cfg.JWTJWKSURL, expectedJWKS)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_PORT"] = "8015"
	envs["CE_LOG_LEVEL"] = "debug"
	envs["CE_LOG_FORMAT"] = "text"
	envs["CE_DB_PORT"] = "5433"
	envs["CE_DB_SSL_MODE"] = "require"
	envs["CE_DEFAULT_DURATION_MONTHS"] = "6"
	envs["CE_EXPORT_DATE_FORMAT"] = "%d.%m.%Y"
	envs["CE_EXCLUSION_CACHE_TTL"] = "1m"
	envs["CE_CA_CERT_PATH"] = "/certs/ca.pem"
	envs["CE_ROLE_ADMIN_GROUPS"] = "admins, super-admins"
	envs["CE_ROLE_READONLY_GROUPS"] = "viewers, guests"
	envs["CE_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8015 {
		t.Errorf("Port = %d, ожидается 8015", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.DefaultDurationMonths != 6 {
		t.Errorf("DefaultDurationMonths = %d, ожидается 6", cfg.DefaultDurationMonths)
	}
	if cfg.ExportDateFormat != "%d.%m.%Y" {
		t.Errorf("ExportDateFormat = %q, ожидается %%d.%%m.%%Y", cfg.ExportDateFormat)
	}
	if cfg.ExclusionCacheTTL != time.Minute {
		t.Errorf("ExclusionCacheTTL = %v, ожидается 1m", cfg.ExclusionCacheTTL)
	}
	if cfg.CACertPath != "/certs/ca.pem" {
		t.Errorf("CACertPath = %q, ожидается /certs/ca.pem", cfg.CACertPath)
	}
	if len(cfg.RoleAdminGroups) != 2 || cfg.RoleAdminGroups[0] != "admins" || cfg.RoleAdminGroups[1] != "super-admins" {
		t.Errorf("RoleAdminGroups = %v, ожидается [admins super-admins]", cfg.RoleAdminGroups)
	}
	if len(cfg.RoleReadonlyGroups) != 2 || cfg.RoleReadonlyGroups[0] != "viewers" || cfg.RoleReadonlyGroups[1] != "guests" {
		t.Errorf("RoleReadonlyGroups = %v, ожидается [viewers guests]", cfg.RoleReadonlyGroups)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"CE_DB_HOST", "CE_DB_NAME", "CE_DB_USER", "CE_DB_PASSWORD",
		"CE_KEYCLOAK_URL",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			// Очищаем все переменные окружения
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["CE_PORT"] = tt.value
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при CE_PORT=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_LOG_LEVEL"] = "verbose"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_LOG_LEVEL=verbose")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_LOG_FORMAT"] = "xml"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_LOG_FORMAT=xml")
	}
}

func TestLoad_InvalidSSLMode(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_DB_SSL_MODE"] = "prefer"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_DB_SSL_MODE=prefer")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_EXCLUSION_CACHE_TTL"] = "abc"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_EXCLUSION_CACHE_TTL=abc")
	}
}

func TestLoad_InvalidDefaultDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"отрицательное", "-3"},
		{"не число", "год"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["CE_DEFAULT_DURATION_MONTHS"] = tt.value
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при CE_DEFAULT_DURATION_MONTHS=%q", tt.value)
			}
		})
	}
}

func TestLoad_DisabledVersioning(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_VERSIONING_ENABLED"] = "false"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_VERSIONING_ENABLED=false")
	}
}

func TestLoad_DisabledModeration(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_MODERATION_ENABLED"] = "false"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при CE_MODERATION_ENABLED=false")
	}
}

func TestLoad_KeycloakURLTrailingSlash(t *testing.T) {
	envs := minimalEnvs()
	envs["CE_KEYCLOAK_URL"] = "https://keycloak.kryukov.lan/"
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.KeycloakURL != "https://keycloak.kryukov.lan" {
		t.Errorf("KeycloakURL = %q, ожидается без trailing slash", cfg.KeycloakURL)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "cms_expiry",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=cms_expiry user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"admins", []string{"admins"}},
		{"admins, viewers", []string{"admins", "viewers"}},
		{"admins,,viewers,", []string{"admins", "viewers"}},
		{" admins , viewers , guests ", []string{"admins", "viewers", "guests"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCSV(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseCSV(%q) = %v (len %d), ожидается %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидается %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}
