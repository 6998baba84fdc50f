// lookups.go — справочные endpoints для фильтров changelist.
// /api/v1/content-types — зарегистрированные типы контента.
// /api/v1/authors — авторы, имеющие записи истечения.
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/cms-content-expiry/internal/api/errors"
)

// contentTypeResponse — тип контента в ответе API.
type contentTypeResponse struct {
	ID                int64  `json:"id"`
	AppLabel          string `json:"app_label"`
	Model             string `json:"model"`
	Label             string `json:"label"`
	Polymorphic       bool   `json:"polymorphic"`
	BaseContentTypeID *int64 `json:"base_content_type_id,omitempty"`
}

// authorResponse — автор в ответе API.
type authorResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// ListContentTypes — GET /api/v1/content-types.
// Возвращает все зарегистрированные версионируемые типы контента.
func (h *APIHandler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.lookups.ContentTypes(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения типов контента", "error", err)
		apierrors.InternalError(w, "Ошибка получения типов контента")
		return
	}

	items := make([]contentTypeResponse, len(types))
	for i, ct := range types {
		items[i] = contentTypeResponse{
			ID:                ct.ID,
			AppLabel:          ct.AppLabel,
			Model:             ct.Model,
			Label:             ct.Label(),
			Polymorphic:       ct.Polymorphic,
			BaseContentTypeID: ct.BaseContentTypeID,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// ListAuthors — GET /api/v1/authors.
// Возвращает авторов, имеющих хотя бы одну запись истечения
// (для фильтра changelist — без пустых вариантов).
func (h *APIHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.lookups.Authors(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения авторов", "error", err)
		apierrors.InternalError(w, "Ошибка получения авторов")
		return
	}

	items := make([]authorResponse, len(authors))
	for i, a := range authors {
		items[i] = authorResponse{
			ID:          a.ID,
			Username:    a.Username,
			DisplayName: a.DisplayName(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}
