// expiry.go — бизнес-логика changelist записей истечения.
//
// Разбор фильтров следует поведению админки:
//   - без фильтра состояний показываются только published-версии,
//     значение "_all_" снимает фильтр;
//   - без окна дат применяются скользящие 30 дней до текущего момента;
//   - неизвестные значения фильтров молча пропускаются;
//   - полиморфные типы разрешаются через реестр: версия несёт базовый
//     тип, конкретный подтип отбирается явным списком ID записей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/expiry"
	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// StateAll — сентинел фильтра состояний: показать все состояния.
const StateAll = "_all_"

// ChangelistQuery — разобранные параметры запроса changelist.
type ChangelistQuery struct {
	// ContentTypeIDs — выбранные типы контента
	ContentTypeIDs []int64
	// States — выбранные состояния версий
	States []string
	// AllStates — снят фильтр состояний (сентинел "_all_")
	AllStates bool
	// CreatedBy — UUID автора
	CreatedBy *string
	// ExpiresFrom, ExpiresTo — окно даты истечения
	ExpiresFrom *time.Time
	ExpiresTo   *time.Time
	// SiteID — сайт для исключения чужих page content
	SiteID *int64
	// Limit, Offset — пагинация (Limit <= 0 — без ограничения)
	Limit  int
	Offset int
}

// ChangelistPage — страница changelist.
type ChangelistPage struct {
	Items  []*model.ExpiryRow
	Total  int
	Limit  int
	Offset int
}

// ExpiryService — сервис changelist и записей истечения.
type ExpiryService struct {
	records      repository.ExpiryRepository
	contentTypes repository.ContentTypeRepository
	exclusions   *PageContentExclusions
	now          func() time.Time
	logger       *slog.Logger
}

// NewExpiryService создаёт сервис changelist.
func NewExpiryService(
	records repository.ExpiryRepository,
	contentTypes repository.ContentTypeRepository,
	exclusions *PageContentExclusions,
	logger *slog.Logger,
) *ExpiryService {
	return &ExpiryService{
		records:      records,
		contentTypes: contentTypes,
		exclusions:   exclusions,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "expiry-service")),
	}
}

// List возвращает страницу changelist с применёнными фильтрами.
func (s *ExpiryService) List(ctx context.Context, q ChangelistQuery) (*ChangelistPage, error) {
	filters, err := s.buildFilters(ctx, q)
	if err != nil {
		return nil, err
	}

	total, err := s.records.Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта записей changelist: %w", err)
	}

	items, err := s.records.List(ctx, filters, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения changelist: %w", err)
	}

	return &ChangelistPage{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Export возвращает полный отфильтрованный набор строк без пагинации.
// Экспортируется ровно то, что видно в changelist с теми же фильтрами.
func (s *ExpiryService) Export(ctx context.Context, q ChangelistQuery) ([]*model.ExpiryRow, error) {
	filters, err := s.buildFilters(ctx, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.records.List(ctx, filters, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки для экспорта: %w", err)
	}

	s.logger.Info("Экспорт changelist", slog.Int("rows", len(rows)))
	return rows, nil
}

// Get возвращает запись истечения с данными changelist.
func (s *ExpiryService) Get(ctx context.Context, id int64) (*model.ExpiryRow, error) {
	row, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: запись истечения %d не найдена", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка получения записи истечения: %w", err)
	}
	return row, nil
}

// UpdateExpires меняет дату истечения записи.
// Единственная разрешённая правка: записи не создаются и не удаляются
// напрямую — только вместе с версией.
func (s *ExpiryService) UpdateExpires(ctx context.Context, id int64, expires *time.Time) (*model.ExpiryRecord, error) {
	rec, err := s.records.UpdateExpires(ctx, id, expires)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: запись истечения %d не найдена", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка обновления даты истечения: %w", err)
	}

	s.logger.Info("Дата истечения обновлена",
		slog.Int64("id", id),
		slog.Any("expires", expires))
	return rec, nil
}

// buildFilters превращает параметры запроса в фильтры репозитория.
func (s *ExpiryService) buildFilters(ctx context.Context, q ChangelistQuery) (repository.ExpiryListFilters, error) {
	var filters repository.ExpiryListFilters

	// Состояния: по умолчанию только published, "_all_" снимает фильтр.
	if !q.AllStates {
		states := make([]string, 0, len(q.States))
		for _, st := range q.States {
			if expiry.IsValidState(st) {
				states = append(states, st)
			}
		}
		if len(states) == 0 {
			states = []string{expiry.StatePublished}
		}
		filters.States = states
	}

	// Типы контента: неполиморфные сравниваются напрямую, полиморфные
	// разрешаются в список ID записей по конкретному подтипу.
	if len(q.ContentTypeIDs) > 0 {
		filters.HasContentTypeFilter = true
		for _, id := range q.ContentTypeIDs {
			ct, err := s.contentTypes.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return filters, fmt.Errorf("ошибка разрешения типа контента %d: %w", id, err)
			}
			if ct.Polymorphic {
				ids, err := s.records.IDsByConcreteType(ctx, ct.BaseID(), ct.ID)
				if err != nil {
					return filters, fmt.Errorf("ошибка разрешения подтипа %d: %w", id, err)
				}
				filters.IncludeIDs = append(filters.IncludeIDs, ids...)
			} else {
				filters.ContentTypeIDs = append(filters.ContentTypeIDs, ct.ID)
			}
		}
	}

	// Автор.
	filters.CreatedBy = q.CreatedBy

	// Окно дат: без явных границ — скользящие 30 дней.
	if q.ExpiresFrom == nil && q.ExpiresTo == nil {
		from, to := expiry.DefaultWindow(s.now())
		filters.ExpiresFrom, filters.ExpiresTo = &from, &to
	} else {
		filters.ExpiresFrom, filters.ExpiresTo = q.ExpiresFrom, q.ExpiresTo
	}

	// Сайт: исключаем page content чужих сайтов.
	if q.SiteID != nil {
		excl, err := s.exclusions.For(ctx, *q.SiteID)
		if err != nil {
			return filters, err
		}
		if excl != nil && len(excl.ObjectIDs) > 0 {
			filters.ExcludeContentTypeID = &excl.ContentTypeID
			filters.ExcludeObjectIDs = excl.ObjectIDs
		}
	}

	return filters, nil
}
