// expiry.go — обработчики /api/v1/content-expiry endpoints.
// Changelist записей истечения: список с фильтрами, CSV-экспорт,
// получение и обновление даты истечения.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/cms-content-expiry/internal/api/errors"
	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

// expiryRowResponse — запись истечения в ответе API.
type expiryRowResponse struct {
	ID               int64      `json:"id"`
	VersionID        int64      `json:"version_id"`
	Title            string     `json:"title"`
	ContentTypeID    int64      `json:"content_type_id"`
	ContentTypeLabel string     `json:"content_type_label"`
	State            string     `json:"state"`
	AuthorName       string     `json:"author_name"`
	CreatedBy        string     `json:"created_by"`
	Expires          *time.Time `json:"expires"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// expiryListResponse — страница changelist.
type expiryListResponse struct {
	Items   []expiryRowResponse `json:"items"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"has_more"`
}

// expiryUpdateRequest — тело запроса обновления даты истечения.
// expires: null сбрасывает дату.
type expiryUpdateRequest struct {
	Expires *time.Time `json:"expires"`
}

// expiryRecordResponse — запись истечения без данных changelist.
type expiryRecordResponse struct {
	ID        int64      `json:"id"`
	VersionID int64      `json:"version_id"`
	Expires   *time.Time `json:"expires"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListContentExpiry — GET /api/v1/content-expiry.
// Changelist с фильтрами по типу контента, состоянию, автору и окну дат.
// Без явных фильтров: только published, истечение за последние 30 дней.
func (h *APIHandler) ListContentExpiry(w http.ResponseWriter, r *http.Request) {
	q := parseChangelistQuery(r.URL.Query())

	page, err := h.expiry.List(r.Context(), q)
	if err != nil {
		h.logger.Error("Ошибка получения changelist", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка записей истечения")
		return
	}

	items := make([]expiryRowResponse, len(page.Items))
	for i, row := range page.Items {
		items[i] = mapExpiryRow(row)
	}

	resp := expiryListResponse{
		Items:   items,
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+page.Limit < page.Total,
	}

	writeJSON(w, http.StatusOK, resp)
}

// ExportCSV — GET /api/v1/content-expiry/export-csv.
// Экспортирует текущую выборку changelist в CSV. Применяются те же
// фильтры, что и в списке; пагинация не применяется.
func (h *APIHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	q := parseChangelistQuery(r.URL.Query())

	rows, err := h.expiry.Export(r.Context(), q)
	if err != nil {
		h.logger.Error("Ошибка экспорта changelist", "error", err)
		apierrors.InternalError(w, "Ошибка экспорта записей истечения")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="content_expiry.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := h.exporter.Write(w, rows); err != nil {
		// Заголовки уже отправлены — только логируем
		h.logger.Error("Ошибка записи CSV", "error", err)
	}
}

// GetContentExpiry — GET /api/v1/content-expiry/{id}.
// Возвращает запись истечения с данными changelist.
func (h *APIHandler) GetContentExpiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор записи")
		return
	}

	row, err := h.expiry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись истечения не найдена")
			return
		}
		h.logger.Error("Ошибка получения записи истечения", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения записи истечения")
		return
	}

	writeJSON(w, http.StatusOK, mapExpiryRow(row))
}

// UpdateContentExpiry — PUT /api/v1/content-expiry/{id}.
// Обновляет дату истечения записи. expires: null сбрасывает дату.
func (h *APIHandler) UpdateContentExpiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор записи")
		return
	}

	var req expiryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	rec, err := h.expiry.UpdateExpires(r.Context(), id, req.Expires)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись истечения не найдена")
			return
		}
		h.logger.Error("Ошибка обновления записи истечения", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка обновления записи истечения")
		return
	}

	writeJSON(w, http.StatusOK, mapExpiryRecord(rec))
}

// --- Маппинг domain → API ---

func mapExpiryRow(row *model.ExpiryRow) expiryRowResponse {
	return expiryRowResponse{
		ID:               row.ID,
		VersionID:        row.VersionID,
		Title:            row.Title,
		ContentTypeID:    row.ContentTypeID,
		ContentTypeLabel: row.ContentTypeLabel,
		State:            row.State,
		AuthorName:       row.AuthorName,
		CreatedBy:        row.CreatedBy,
		Expires:          row.Expires,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func mapExpiryRecord(rec *model.ExpiryRecord) expiryRecordResponse {
	return expiryRecordResponse{
		ID:        rec.ID,
		VersionID: rec.VersionID,
		Expires:   rec.Expires,
		CreatedBy: rec.CreatedBy,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// pathID извлекает числовой идентификатор из пути запроса.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
