// moderation.go — обработчики интеграции с moderation framework.
// GET /api/v1/moderation-requests/{id}/content-expiry — запись истечения заявки.
// POST /api/v1/moderation-collections/{id}/copy-expiry — копирование даты
// истечения на все версии коллекции.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/arturkryukov/cms-content-expiry/internal/api/errors"
	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

// copyExpiryRequest — тело запроса копирования даты истечения.
type copyExpiryRequest struct {
	// VersionID — версия-источник внутри коллекции
	VersionID int64 `json:"version_id"`
}

// copyExpiryResponse — результат копирования.
type copyExpiryResponse struct {
	// Updated — количество обновлённых записей истечения
	Updated int `json:"updated"`
}

// GetModerationRequestExpiry — GET /api/v1/moderation-requests/{id}/content-expiry.
// Возвращает запись истечения версии, проходящей модерацию.
func (h *APIHandler) GetModerationRequestExpiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заявки")
		return
	}

	row, err := h.moderation.ExpiryForRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись истечения для заявки не найдена")
			return
		}
		h.logger.Error("Ошибка получения записи истечения заявки", "request_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения записи истечения")
		return
	}

	writeJSON(w, http.StatusOK, mapExpiryRow(row))
}

// CopyExpiryToCollection — POST /api/v1/moderation-collections/{id}/copy-expiry.
// Копирует дату истечения версии-источника на все остальные версии
// коллекции модерации.
func (h *APIHandler) CopyExpiryToCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор коллекции")
		return
	}

	var req copyExpiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.VersionID <= 0 {
		apierrors.ValidationError(w, "Версия-источник (version_id) обязательна")
		return
	}

	updated, err := h.moderation.CopyExpiryToCollection(r.Context(), id, req.VersionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, err.Error())
			return
		}
		h.logger.Error("Ошибка копирования даты истечения",
			"collection_id", id,
			"version_id", req.VersionID,
			"error", err)
		apierrors.InternalError(w, "Ошибка копирования даты истечения")
		return
	}

	writeJSON(w, http.StatusOK, copyExpiryResponse{Updated: updated})
}
