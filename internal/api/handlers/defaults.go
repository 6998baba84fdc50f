// defaults.go — обработчики /api/v1/default-durations endpoints.
// Длительности по умолчанию: список, получение, установка, удаление.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/arturkryukov/cms-content-expiry/internal/api/errors"
	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

// durationResponse — конфигурация длительности в ответе API.
type durationResponse struct {
	ContentTypeID  int64     `json:"content_type_id"`
	DurationMonths int       `json:"duration_months"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// durationListResponse — список конфигураций длительности.
type durationListResponse struct {
	Items []durationResponse `json:"items"`
	Total int                `json:"total"`
}

// durationSetRequest — тело запроса установки длительности.
type durationSetRequest struct {
	DurationMonths int `json:"duration_months"`
}

// ListDefaultDurations — GET /api/v1/default-durations.
// Возвращает все настроенные длительности по типам контента.
func (h *APIHandler) ListDefaultDurations(w http.ResponseWriter, r *http.Request) {
	cfgs, err := h.durations.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка длительностей", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка длительностей")
		return
	}

	items := make([]durationResponse, len(cfgs))
	for i, cfg := range cfgs {
		items[i] = mapDuration(cfg)
	}

	writeJSON(w, http.StatusOK, durationListResponse{Items: items, Total: len(items)})
}

// GetDefaultDuration — GET /api/v1/default-durations/{content_type_id}.
// Возвращает настроенную длительность для типа контента.
// 404 если для типа применяется глобальный default.
func (h *APIHandler) GetDefaultDuration(w http.ResponseWriter, r *http.Request) {
	ctID, err := pathID(r, "content_type_id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор типа контента")
		return
	}

	cfg, err := h.durations.Get(r.Context(), ctID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Длительность для типа не настроена")
			return
		}
		h.logger.Error("Ошибка получения длительности", "content_type_id", ctID, "error", err)
		apierrors.InternalError(w, "Ошибка получения длительности")
		return
	}

	writeJSON(w, http.StatusOK, mapDuration(cfg))
}

// SetDefaultDuration — PUT /api/v1/default-durations/{content_type_id}.
// Устанавливает длительность для типа контента (создаёт или обновляет).
func (h *APIHandler) SetDefaultDuration(w http.ResponseWriter, r *http.Request) {
	ctID, err := pathID(r, "content_type_id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор типа контента")
		return
	}

	var req durationSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	cfg, err := h.durations.Set(r.Context(), ctID, req.DurationMonths)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Тип контента не найден")
			return
		}
		h.logger.Error("Ошибка установки длительности", "content_type_id", ctID, "error", err)
		apierrors.InternalError(w, "Ошибка установки длительности")
		return
	}

	writeJSON(w, http.StatusOK, mapDuration(cfg))
}

// DeleteDefaultDuration — DELETE /api/v1/default-durations/{content_type_id}.
// Удаляет настройку длительности; тип возвращается к глобальному default.
func (h *APIHandler) DeleteDefaultDuration(w http.ResponseWriter, r *http.Request) {
	ctID, err := pathID(r, "content_type_id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор типа контента")
		return
	}

	if err := h.durations.Delete(r.Context(), ctID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Длительность для типа не настроена")
			return
		}
		h.logger.Error("Ошибка удаления длительности", "content_type_id", ctID, "error", err)
		apierrors.InternalError(w, "Ошибка удаления длительности")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func mapDuration(cfg *model.DefaultDurationConfig) durationResponse {
	return durationResponse{
		ContentTypeID:  cfg.ContentTypeID,
		DurationMonths: cfg.DurationMonths,
		UpdatedAt:      cfg.UpdatedAt,
	}
}
