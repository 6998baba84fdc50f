// lookup.go — справочные выборки для фильтров changelist.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// LookupService — справочники для выпадающих списков фильтров.
type LookupService struct {
	contentTypes repository.ContentTypeRepository
	authors      repository.AuthorRepository
	logger       *slog.Logger
}

// NewLookupService создаёт сервис справочников.
func NewLookupService(
	contentTypes repository.ContentTypeRepository,
	authors repository.AuthorRepository,
	logger *slog.Logger,
) *LookupService {
	return &LookupService{
		contentTypes: contentTypes,
		authors:      authors,
		logger:       logger.With(slog.String("component", "lookup-service")),
	}
}

// ContentTypes возвращает все зарегистрированные типы контента.
func (s *LookupService) ContentTypes(ctx context.Context) ([]*model.ContentType, error) {
	list, err := s.contentTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения типов контента: %w", err)
	}
	return list, nil
}

// Authors возвращает авторов, у которых есть записи истечения.
// Пользователи без записей в фильтре не показываются.
func (s *LookupService) Authors(ctx context.Context) ([]*model.Author, error) {
	list, err := s.authors.ListWithExpiryRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения авторов: %w", err)
	}
	return list, nil
}
