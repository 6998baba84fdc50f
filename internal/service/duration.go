// duration.go — бизнес-логика длительностей по умолчанию и вычисления
// даты истечения новой версии.
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

// DurationService — сервис длительностей по умолчанию.
// Разрешение длительности для типа: сначала запись типа в
// default_duration_configs, при её отсутствии — глобальный default
// из конфигурации.
type DurationService struct {
	durations     repository.DefaultDurationRepository
	contentTypes  repository.ContentTypeRepository
	defaultMonths int
	logger        *slog.Logger
}

// NewDurationService создаёт сервис длительностей.
func NewDurationService(
	durations repository.DefaultDurationRepository,
	contentTypes repository.ContentTypeRepository,
	defaultMonths int,
	logger *slog.Logger,
) *DurationService {
	return &DurationService{
		durations:     durations,
		contentTypes:  contentTypes,
		defaultMonths: defaultMonths,
		logger:        logger.With(slog.String("component", "duration-service")),
	}
}

// ResolveMonths возвращает длительность в месяцах для типа контента.
// Отсутствие записи для типа — не ошибка: применяется глобальный default.
func (s *DurationService) ResolveMonths(ctx context.Context, contentTypeID int64) (int, error) {
	cfg, err := s.durations.GetByContentType(ctx, contentTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.defaultMonths, nil
		}
		return 0, fmt.Errorf("ошибка разрешения длительности: %w", err)
	}
	return cfg.DurationMonths, nil
}

// ExpireDateFor вычисляет дату истечения новой версии типа contentTypeID,
// создаваемой в момент from: from + длительность типа в календарных месяцах.
func (s *DurationService) ExpireDateFor(ctx context.Context, contentTypeID int64, from time.Time) (time.Time, error) {
	months, err := s.ResolveMonths(ctx, contentTypeID)
	if err != nil {
		return time.Time{}, err
	}
	return expiry.AddMonths(from, months), nil
}

// Get возвращает конфигурацию длительности типа.
func (s *DurationService) Get(ctx context.Context, contentTypeID int64) (*model.DefaultDurationConfig, error) {
	cfg, err := s.durations.GetByContentType(ctx, contentTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: длительность для типа %d не настроена", ErrNotFound, contentTypeID)
		}
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}
	return cfg, nil
}

// List возвращает все настроенные длительности.
func (s *DurationService) List(ctx context.Context) ([]*model.DefaultDurationConfig, error) {
	list, err := s.durations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка длительностей: %w", err)
	}
	return list, nil
}

// Set создаёт или обновляет длительность типа контента.
// Тип должен быть зарегистрирован, длительность — положительной.
func (s *DurationService) Set(ctx context.Context, contentTypeID int64, months int) (*model.DefaultDurationConfig, error) {
	if months < 1 {
		return nil, fmt.Errorf("%w: длительность должна быть положительной, получено %d", ErrValidation, months)
	}

	if _, err := s.contentTypes.GetByID(ctx, contentTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: тип контента %d не зарегистрирован", ErrNotFound, contentTypeID)
		}
		return nil, fmt.Errorf("ошибка проверки типа контента: %w", err)
	}

	cfg := &model.DefaultDurationConfig{ContentTypeID: contentTypeID, DurationMonths: months}
	if err := s.durations.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("ошибка сохранения длительности: %w", err)
	}

	s.logger.Info("Длительность типа обновлена",
		slog.Int64("content_type_id", contentTypeID),
		slog.Int("months", months))
	return cfg, nil
}

// Delete удаляет конфигурацию длительности типа.
// После удаления тип возвращается к глобальному default.
func (s *DurationService) Delete(ctx context.Context, contentTypeID int64) error {
	if err := s.durations.Delete(ctx, contentTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: длительность для типа %d не настроена", ErrNotFound, contentTypeID)
		}
		return fmt.Errorf("ошибка удаления длительности: %w", err)
	}

	s.logger.Info("Длительность типа удалена", slog.Int64("content_type_id", contentTypeID))
	return nil
}
