// moderation.go — интеграция с модерацией: просмотр даты истечения
// заявки и копирование даты на всю коллекцию.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// ModerationService — операции над записями истечения в контексте модерации.
type ModerationService struct {
	moderation repository.ModerationRepository
	records    repository.ExpiryRepository
	logger     *slog.Logger
}

// NewModerationService создаёт сервис модерации.
func NewModerationService(
	moderation repository.ModerationRepository,
	records repository.ExpiryRepository,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		moderation: moderation,
		records:    records,
		logger:     logger.With(slog.String("component", "moderation-service")),
	}
}

// ExpiryForRequest возвращает запись истечения версии заявки модерации.
// Отображается в changelist модерации рядом с заявкой.
func (s *ModerationService) ExpiryForRequest(ctx context.Context, requestID int64) (*model.ExpiryRow, error) {
	req, err := s.moderation.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: заявка модерации %d не найдена", ErrNotFound, requestID)
		}
		return nil, fmt.Errorf("ошибка получения заявки модерации: %w", err)
	}

	row, err := s.records.GetByVersionID(ctx, req.VersionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: у версии %d нет записи истечения", ErrNotFound, req.VersionID)
		}
		return nil, fmt.Errorf("ошибка получения записи истечения: %w", err)
	}
	return row, nil
}

// CopyExpiryToCollection копирует дату истечения версии sourceVersionID
// на все остальные версии коллекции collectionID.
// Версии без записи истечения пропускаются. Возвращает количество
// обновлённых записей.
func (s *ModerationService) CopyExpiryToCollection(ctx context.Context, collectionID, sourceVersionID int64) (int, error) {
	source, err := s.records.GetByVersionID(ctx, sourceVersionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: у версии %d нет записи истечения", ErrNotFound, sourceVersionID)
		}
		return 0, fmt.Errorf("ошибка получения исходной записи: %w", err)
	}

	requests, err := s.moderation.ListByCollection(ctx, collectionID)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения заявок коллекции: %w", err)
	}
	if len(requests) == 0 {
		return 0, fmt.Errorf("%w: коллекция %d пуста или не существует", ErrNotFound, collectionID)
	}

	updated := 0
	for _, req := range requests {
		if req.VersionID == sourceVersionID {
			continue
		}
		target, err := s.records.GetByVersionID(ctx, req.VersionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return updated, fmt.Errorf("ошибка получения записи версии %d: %w", req.VersionID, err)
		}
		if _, err := s.records.UpdateExpires(ctx, target.ID, source.Expires); err != nil {
			return updated, fmt.Errorf("ошибка копирования даты на версию %d: %w", req.VersionID, err)
		}
		updated++
	}

	s.logger.Info("Дата истечения скопирована на коллекцию",
		slog.Int64("collection_id", collectionID),
		slog.Int64("source_version_id", sourceVersionID),
		slog.Int("updated", updated))
	return updated, nil
}
