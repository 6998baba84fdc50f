// version.go — создание версий с автоматической записью истечения.
//
// Версия, её объект, автор и запись истечения создаются в одной
// транзакции: версии без записи истечения существовать не должно.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/expiry"
	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// CreateVersionInput — входные данные создания версии.
type CreateVersionInput struct {
	// ContentTypeID — тип контента версии (для полиморфных моделей — базовый)
	ContentTypeID int64
	// ConcreteContentTypeID — конкретный подтип полиморфной модели
	ConcreteContentTypeID *int64
	// ObjectID — UUID объекта контента
	ObjectID string
	// Title — заголовок объекта
	Title string
	// SiteID — сайт (только для page content)
	SiteID *int64
	// State — состояние версии (по умолчанию draft)
	State string
	// Author — автор версии
	Author model.Author
}

// CreateVersionResult — созданная версия и её запись истечения.
type CreateVersionResult struct {
	Version *model.Version
	Record  *model.ExpiryRecord
}

// VersionService — сервис версий: создание и переходы состояний.
type VersionService struct {
	txRunner     *repository.TxRunner
	versions     repository.VersionRepository
	contentTypes repository.ContentTypeRepository
	durations    *DurationService
	exclusions   *PageContentExclusions
	now          func() time.Time
	logger       *slog.Logger
}

// NewVersionService создаёт сервис версий.
func NewVersionService(
	txRunner *repository.TxRunner,
	versions repository.VersionRepository,
	contentTypes repository.ContentTypeRepository,
	durations *DurationService,
	exclusions *PageContentExclusions,
	logger *slog.Logger,
) *VersionService {
	return &VersionService{
		txRunner:     txRunner,
		versions:     versions,
		contentTypes: contentTypes,
		durations:    durations,
		exclusions:   exclusions,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "version-service")),
	}
}

// Create создаёт версию вместе с записью истечения.
// Дата истечения вычисляется от момента создания: текущее время плюс
// длительность типа в календарных месяцах.
func (s *VersionService) Create(ctx context.Context, in CreateVersionInput) (*CreateVersionResult, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expires, err := s.durations.ExpireDateFor(ctx, in.ContentTypeID, now)
	if err != nil {
		return nil, err
	}

	version := &model.Version{
		ContentTypeID: in.ContentTypeID,
		ObjectID:      in.ObjectID,
		State:         in.State,
		CreatedBy:     in.Author.ID,
	}
	record := &model.ExpiryRecord{
		Expires:   &expires,
		CreatedBy: in.Author.ID,
	}

	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := repository.NewAuthorRepository(tx).Upsert(ctx, &in.Author); err != nil {
			return err
		}

		content := &model.Content{
			ObjectID:              in.ObjectID,
			ContentTypeID:         in.ContentTypeID,
			ConcreteContentTypeID: in.ConcreteContentTypeID,
			Title:                 in.Title,
			SiteID:                in.SiteID,
		}
		if err := repository.NewContentRepository(tx).Upsert(ctx, content); err != nil {
			return err
		}

		if err := repository.NewVersionRepository(tx).Create(ctx, version); err != nil {
			return err
		}

		record.VersionID = version.ID
		return repository.NewExpiryRepository(tx).Create(ctx, record)
	})
	if err != nil {
		return nil, wrapCreateError(err)
	}

	// Состав страниц сайта изменился — кеш исключений устарел.
	if in.SiteID != nil {
		s.exclusions.Invalidate(*in.SiteID)
	}

	s.logger.Info("Версия создана",
		slog.Int64("version_id", version.ID),
		slog.String("object_id", in.ObjectID),
		slog.Time("expires", expires))
	return &CreateVersionResult{Version: version, Record: record}, nil
}

// UpdateState переводит версию в новое состояние жизненного цикла
// (publish, unpublish, archive). Запись истечения при этом не меняется.
func (s *VersionService) UpdateState(ctx context.Context, id int64, state string) (*model.Version, error) {
	if !expiry.IsValidState(state) {
		return nil, fmt.Errorf("%w: недопустимое состояние %q", ErrValidation, state)
	}

	if err := s.versions.UpdateState(ctx, id, state); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: версия %d не найдена", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка обновления состояния версии: %w", err)
	}

	v, err := s.versions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения версии после обновления: %w", err)
	}

	s.logger.Info("Состояние версии обновлено",
		slog.Int64("version_id", id),
		slog.String("state", state))
	return v, nil
}

// wrapCreateError переводит ошибку транзакции создания версии
// в ошибку сервисного слоя. Конфликт репозитория (занятый логин,
// повторная запись истечения) должен отдаваться как ErrConflict.
func wrapCreateError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrConflict, err)
	}
	return fmt.Errorf("ошибка создания версии: %w", err)
}

// validate проверяет и нормализует входные данные.
func (s *VersionService) validate(ctx context.Context, in *CreateVersionInput) error {
	if _, err := uuid.Parse(in.ObjectID); err != nil {
		return fmt.Errorf("%w: object_id должен быть UUID", ErrValidation)
	}
	if in.Author.ID == "" || in.Author.Username == "" {
		return fmt.Errorf("%w: автор версии обязателен", ErrValidation)
	}
	if _, err := uuid.Parse(in.Author.ID); err != nil {
		return fmt.Errorf("%w: id автора должен быть UUID", ErrValidation)
	}

	if in.State == "" {
		in.State = expiry.StateDraft
	}
	if !expiry.IsValidState(in.State) {
		return fmt.Errorf("%w: недопустимое состояние %q", ErrValidation, in.State)
	}

	if _, err := s.contentTypes.GetByID(ctx, in.ContentTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: тип контента %d не зарегистрирован", ErrNotFound, in.ContentTypeID)
		}
		return fmt.Errorf("ошибка проверки типа контента: %w", err)
	}
	if in.ConcreteContentTypeID != nil {
		if _, err := s.contentTypes.GetByID(ctx, *in.ConcreteContentTypeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: подтип %d не зарегистрирован", ErrNotFound, *in.ConcreteContentTypeID)
			}
			return fmt.Errorf("ошибка проверки подтипа: %w", err)
		}
	}

	return nil
}
