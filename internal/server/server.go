// Пакет server — HTTP-сервер Content Expiry с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/api/handlers"
	"github.com/arturkryukov/cms-content-expiry/internal/api/middleware"
	"github.com/arturkryukov/cms-content-expiry/internal/config"
)

// Роли и scopes для контроля доступа к маршрутам.
var (
	readRoles  = []string{"admin", "readonly"}
	writeRoles = []string{"admin"}

	readScopes     = []string{"expiry:read"}
	writeScopes    = []string{"expiry:write"}
	versionsScopes = []string{"versions:write"}
)

// Server — HTTP-сервер Content Expiry.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// JWT middleware с исключениями для публичных endpoints.
	// Health и metrics проверяются Kubernetes напрямую, без API Gateway.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth, "/health/", "/metrics"))
	}

	registerRoutes(router, handler, jwtAuth != nil)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// registerRoutes настраивает маршруты API с контролем доступа.
// withRBAC=false отключает проверку ролей (тестирование без auth).
func registerRoutes(router chi.Router, h *handlers.APIHandler, withRBAC bool) {
	// Публичные endpoints
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	// guard строит middleware контроля доступа для маршрута
	guard := func(roles, scopes []string) func(http.Handler) http.Handler {
		if !withRBAC {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RequireRoleOrScope(roles, scopes)
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Changelist записей истечения
		r.With(guard(readRoles, readScopes)).Get("/content-expiry", h.ListContentExpiry)
		r.With(guard(readRoles, readScopes)).Get("/content-expiry/export-csv", h.ExportCSV)
		r.With(guard(readRoles, readScopes)).Get("/content-expiry/{id}", h.GetContentExpiry)
		r.With(guard(writeRoles, writeScopes)).Put("/content-expiry/{id}", h.UpdateContentExpiry)

		// Справочники для фильтров
		r.With(guard(readRoles, readScopes)).Get("/content-types", h.ListContentTypes)
		r.With(guard(readRoles, readScopes)).Get("/authors", h.ListAuthors)

		// Длительности по умолчанию
		r.With(guard(readRoles, readScopes)).Get("/default-durations", h.ListDefaultDurations)
		r.With(guard(readRoles, readScopes)).Get("/default-durations/{content_type_id}", h.GetDefaultDuration)
		r.With(guard(writeRoles, writeScopes)).Put("/default-durations/{content_type_id}", h.SetDefaultDuration)
		r.With(guard(writeRoles, writeScopes)).Delete("/default-durations/{content_type_id}", h.DeleteDefaultDuration)

		// Версионирование CMS через SA: создание и переходы состояний
		r.With(guard(writeRoles, versionsScopes)).Post("/versions", h.CreateVersion)
		r.With(guard(writeRoles, versionsScopes)).Put("/versions/{id}/state", h.UpdateVersionState)

		// Интеграция с moderation framework
		r.With(guard(readRoles, readScopes)).Get("/moderation-requests/{id}/content-expiry", h.GetModerationRequestExpiry)
		r.With(guard(writeRoles, writeScopes)).Post("/moderation-collections/{id}/copy-expiry", h.CopyExpiryToCollection)
	})
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Проверяем, начинается ли путь с исключённого префикса
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Применяем JWT middleware
			jwtMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
