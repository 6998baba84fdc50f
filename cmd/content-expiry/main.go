// Точка входа Content Expiry — модуль сроков истечения контента CMS.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт сервисный слой и API handlers, запускает topologymetrics,
// HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/arturkryukov/cms-content-expiry/internal/api/handlers"
	"github.com/arturkryukov/cms-content-expiry/internal/api/middleware"
	"github.com/arturkryukov/cms-content-expiry/internal/config"
	"github.com/arturkryukov/cms-content-expiry/internal/database"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
	"github.com/arturkryukov/cms-content-expiry/internal/server"
	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Content Expiry запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("CE_DEPHEALTH_GROUP") == "" {
		logger.Warn("CE_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL будет идти через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	contentTypeRepo := repository.NewContentTypeRepository(pool)
	authorRepo := repository.NewAuthorRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	expiryRepo := repository.NewExpiryRepository(pool)
	durationRepo := repository.NewDefaultDurationRepository(pool)
	moderationRepo := repository.NewModerationRepository(pool)
	versionRepo := repository.NewVersionRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Services
	durationSvc := service.NewDurationService(
		durationRepo, contentTypeRepo,
		cfg.DefaultDurationMonths,
		logger,
	)
	exclusions := service.NewPageContentExclusions(
		contentRepo, contentTypeRepo,
		cfg.ExclusionCacheTTL,
		logger,
	)
	expirySvc := service.NewExpiryService(
		expiryRepo, contentTypeRepo, exclusions,
		logger,
	)
	versionSvc := service.NewVersionService(
		txRunner, versionRepo, contentTypeRepo, durationSvc, exclusions,
		logger,
	)
	moderationSvc := service.NewModerationService(
		moderationRepo, expiryRepo,
		logger,
	)
	lookupSvc := service.NewLookupService(
		contentTypeRepo, authorRepo,
		logger,
	)
	exporter := service.NewCSVExporter(cfg.ExportDateFormat)

	// 7. Readiness checkers (PostgreSQL + Keycloak)
	pgChecker := database.NewReadinessChecker(pool)
	kcChecker, err := middleware.NewKeycloakReadinessChecker(
		cfg.JWTJWKSURL, cfg.CACertPath, cfg.KeycloakReadinessTimeout,
	)
	if err != nil {
		logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, kcChecker)

	// 8. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		expirySvc,
		durationSvc,
		versionSvc,
		moderationSvc,
		lookupSvc,
		exporter,
		logger,
	)

	// 9. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.CACertPath,
		cfg.JWTIssuer,
		cfg.RoleAdminGroups,
		cfg.RoleReadonlyGroups,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 10. topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"content-expiry",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Content Expiry остановлен")
}
