package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// ModerationRepository — заявки модерации (зеркало moderation framework).
// Таблицу заполняет процесс синхронизации CMS: сервис заявки сам не
// создаёт, Create — точка приёма для этого процесса.
type ModerationRepository interface {
	// Create добавляет заявку модерации, полученную из CMS.
	Create(ctx context.Context, m *model.ModerationRequest) error
	// GetByID возвращает заявку по ID.
	GetByID(ctx context.Context, id int64) (*model.ModerationRequest, error)
	// ListByCollection возвращает заявки коллекции.
	ListByCollection(ctx context.Context, collectionID int64) ([]*model.ModerationRequest, error)
}

type moderationRepo struct {
	db DBTX
}

// NewModerationRepository создаёт репозиторий заявок модерации.
func NewModerationRepository(db DBTX) ModerationRepository {
	return &moderationRepo{db: db}
}

func (r *moderationRepo) Create(ctx context.Context, m *model.ModerationRequest) error {
	query := `
		INSERT INTO moderation_requests (collection_id, version_id)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, m.CollectionID, m.VersionID).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания заявки модерации: %w", err)
	}
	return nil
}

func (r *moderationRepo) GetByID(ctx context.Context, id int64) (*model.ModerationRequest, error) {
	query := `
		SELECT id, collection_id, version_id
		FROM moderation_requests
		WHERE id = $1`

	m := &model.ModerationRequest{}
	err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.CollectionID, &m.VersionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки модерации: %w", err)
	}
	return m, nil
}

func (r *moderationRepo) ListByCollection(ctx context.Context, collectionID int64) ([]*model.ModerationRequest, error) {
	query := `
		SELECT id, collection_id, version_id
		FROM moderation_requests
		WHERE collection_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок коллекции: %w", err)
	}
	defer rows.Close()

	var result []*model.ModerationRequest
	for rows.Next() {
		m := &model.ModerationRequest{}
		if err := rows.Scan(&m.ID, &m.CollectionID, &m.VersionID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки модерации: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
