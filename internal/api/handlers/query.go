// query.go — разбор параметров запроса changelist.
// Некорректные значения фильтров молча пропускаются: changelist всегда
// отвечает страницей, а не ошибкой валидации.
package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arturkryukov/cms-content-expiry/internal/service"
)

// Пагинация по умолчанию.
const (
	defaultLimit = 100
	maxLimit     = 1000
)

// parseChangelistQuery разбирает query-параметры changelist.
// Поддерживаются: content_type (CSV из ID), state (CSV, "_all_" снимает
// фильтр), created_by (UUID), expires_from/expires_to (RFC3339),
// site, limit, offset.
func parseChangelistQuery(values url.Values) service.ChangelistQuery {
	q := service.ChangelistQuery{
		Limit:  defaultLimit,
		Offset: 0,
	}

	// Типы контента — CSV из числовых ID
	for _, part := range splitCSV(values.Get("content_type")) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		q.ContentTypeIDs = append(q.ContentTypeIDs, id)
	}

	// Состояния версий — CSV, сентинел "_all_" снимает фильтр
	for _, part := range splitCSV(values.Get("state")) {
		if part == service.StateAll {
			q.AllStates = true
			continue
		}
		q.States = append(q.States, part)
	}

	// Автор — UUID
	if v := values.Get("created_by"); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			q.CreatedBy = &v
		}
	}

	// Окно даты истечения — RFC3339
	if t, ok := parseTime(values.Get("expires_from")); ok {
		q.ExpiresFrom = &t
	}
	if t, ok := parseTime(values.Get("expires_to")); ok {
		q.ExpiresTo = &t
	}

	// Сайт
	if v := values.Get("site"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.SiteID = &id
		}
	}

	// Пагинация
	if v := values.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			if l < 1 {
				l = 1
			}
			if l > maxLimit {
				l = maxLimit
			}
			q.Limit = l
		}
	}
	if v := values.Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			q.Offset = o
		}
	}

	return q
}

// splitCSV разбивает CSV-значение параметра, отбрасывая пустые элементы.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		result = append(result, p)
	}
	return result
}

// parseTime разбирает дату в RFC3339.
func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
