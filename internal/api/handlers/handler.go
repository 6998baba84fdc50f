// handler.go — основной обработчик API Content Expiry.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
// Контроль доступа (роли и scopes) выполняется route-middleware в server.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

// APIHandler — основной обработчик API Content Expiry.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health     *HealthHandler
	expiry     *service.ExpiryService
	durations  *service.DurationService
	versions   *service.VersionService
	moderation *service.ModerationService
	lookups    *service.LookupService
	exporter   *service.CSVExporter
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	expiry *service.ExpiryService,
	durations *service.DurationService,
	versions *service.VersionService,
	moderation *service.ModerationService,
	lookups *service.LookupService,
	exporter *service.CSVExporter,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		expiry:     expiry,
		durations:  durations,
		versions:   versions,
		moderation: moderation,
		lookups:    lookups,
		exporter:   exporter,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
