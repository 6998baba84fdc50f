// metrics.go — Prometheus HTTP метрики Content Expiry.
// Регистрирует метрики: ce_http_requests_total, ce_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ce_http_requests_total",
			Help: "Общее количество HTTP-запросов к Content Expiry",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ce_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Content Expiry в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем числовые ID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет ID-сегменты пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/content-expiry/123 → /api/v1/content-expiry/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/content-expiry",
		"/api/v1/content-expiry/export-csv",
		"/api/v1/content-types",
		"/api/v1/authors",
		"/api/v1/default-durations",
		"/api/v1/versions":
		return path
	}

	// Динамические пути с числовыми ID
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/content-expiry/", "/api/v1/content-expiry/{id}"},
		{"/api/v1/default-durations/", "/api/v1/default-durations/{content_type_id}"},
		{"/api/v1/moderation-requests/", "/api/v1/moderation-requests/{id}"},
		{"/api/v1/moderation-collections/", "/api/v1/moderation-collections/{id}"},
		{"/api/v1/versions/", "/api/v1/versions/{id}"},
	}

	for _, p := range prefixes {
		if !strings.HasPrefix(path, p.prefix) {
			continue
		}
		rest := path[len(p.prefix):]
		// Суффиксы после ID ({id}/content-expiry, {id}/copy-expiry)
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return p.result + rest[idx:]
		}
		return p.result
	}

	return path
}
