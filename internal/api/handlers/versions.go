// versions.go — обработчики /api/v1/versions.
// Создание версии контента вместе с записью истечения (дата вычисляется
// автоматически от момента создания по длительности типа) и переводы
// состояний жизненного цикла.
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

// versionCreateRequest — тело запроса создания версии.
type versionCreateRequest struct {
	ContentTypeID         int64  `json:"content_type_id"`
	ConcreteContentTypeID *int64 `json:"concrete_content_type_id,omitempty"`
	ObjectID              string `json:"object_id"`
	Title                 string `json:"title"`
	SiteID                *int64 `json:"site_id,omitempty"`
	State                 string `json:"state,omitempty"`
	Author                struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name,omitempty"`
	} `json:"author"`
}

// versionCreateResponse — созданная версия с её записью истечения.
type versionCreateResponse struct {
	Version struct {
		ID            int64     `json:"id"`
		ContentTypeID int64     `json:"content_type_id"`
		ObjectID      string    `json:"object_id"`
		State         string    `json:"state"`
		CreatedBy     string    `json:"created_by"`
		Created       time.Time `json:"created"`
	} `json:"version"`
	Expiry expiryRecordResponse `json:"expiry"`
}

// CreateVersion — POST /api/v1/versions.
// Регистрирует версию контента: upsert автора и объекта, создание версии
// и записи истечения в одной транзакции.
func (h *APIHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req versionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	in := service.CreateVersionInput{
		ContentTypeID:         req.ContentTypeID,
		ConcreteContentTypeID: req.ConcreteContentTypeID,
		ObjectID:              req.ObjectID,
		Title:                 req.Title,
		SiteID:                req.SiteID,
		State:                 req.State,
		Author: model.Author{
			ID:       req.Author.ID,
			Username: req.Author.Username,
			FullName: req.Author.FullName,
		},
	}

	result, err := h.versions.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, err.Error())
			return
		}
		if errors.Is(err, service.ErrConflict) {
			apierrors.Conflict(w, err.Error())
			return
		}
		h.logger.Error("Ошибка создания версии",
			"content_type_id", req.ContentTypeID,
			"object_id", req.ObjectID,
			"error", err)
		apierrors.InternalError(w, "Ошибка создания версии")
		return
	}

	var resp versionCreateResponse
	resp.Version.ID = result.Version.ID
	resp.Version.ContentTypeID = result.Version.ContentTypeID
	resp.Version.ObjectID = result.Version.ObjectID
	resp.Version.State = result.Version.State
	resp.Version.CreatedBy = result.Version.CreatedBy
	resp.Version.Created = result.Version.Created
	resp.Expiry = mapExpiryRecord(result.Record)

	writeJSON(w, http.StatusCreated, resp)
}

// versionStateRequest — тело запроса перевода состояния.
type versionStateRequest struct {
	State string `json:"state"`
}

// versionResponse — версия в ответах API.
type versionResponse struct {
	ID            int64     `json:"id"`
	ContentTypeID int64     `json:"content_type_id"`
	ObjectID      string    `json:"object_id"`
	State         string    `json:"state"`
	CreatedBy     string    `json:"created_by"`
	Created       time.Time `json:"created"`
}

// UpdateVersionState — PUT /api/v1/versions/{id}/state.
// Переводит версию в новое состояние (publish, unpublish, archive).
func (h *APIHandler) UpdateVersionState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id версии")
		return
	}

	var req versionStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	v, err := h.versions.UpdateState(r.Context(), id, req.State)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, err.Error())
			return
		}
		h.logger.Error("Ошибка обновления состояния версии",
			"version_id", id,
			"state", req.State,
			"error", err)
		apierrors.InternalError(w, "Ошибка обновления состояния версии")
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{
		ID:            v.ID,
		ContentTypeID: v.ContentTypeID,
		ObjectID:      v.ObjectID,
		State:         v.State,
		CreatedBy:     v.CreatedBy,
		Created:       v.Created,
	})
}
