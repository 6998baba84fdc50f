package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// DefaultDurationRepository — длительности по умолчанию для типов контента.
type DefaultDurationRepository interface {
	// GetByContentType возвращает конфигурацию типа или ErrNotFound.
	GetByContentType(ctx context.Context, contentTypeID int64) (*model.DefaultDurationConfig, error)
	// Upsert создаёт или обновляет конфигурацию типа.
	Upsert(ctx context.Context, cfg *model.DefaultDurationConfig) error
	// List возвращает все конфигурации.
	List(ctx context.Context) ([]*model.DefaultDurationConfig, error)
	// Delete удаляет конфигурацию типа.
	Delete(ctx context.Context, contentTypeID int64) error
}

type defaultDurationRepo struct {
	db DBTX
}

// NewDefaultDurationRepository создаёт репозиторий длительностей.
func NewDefaultDurationRepository(db DBTX) DefaultDurationRepository {
	return &defaultDurationRepo{db: db}
}

func (r *defaultDurationRepo) GetByContentType(ctx context.Context, contentTypeID int64) (*model.DefaultDurationConfig, error) {
	query := `
		SELECT content_type_id, duration_months, updated_at
		FROM default_duration_configs
		WHERE content_type_id = $1`

	cfg := &model.DefaultDurationConfig{}
	err := r.db.QueryRow(ctx, query, contentTypeID).Scan(
		&cfg.ContentTypeID, &cfg.DurationMonths, &cfg.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}
	return cfg, nil
}

func (r *defaultDurationRepo) Upsert(ctx context.Context, cfg *model.DefaultDurationConfig) error {
	query := `
		INSERT INTO default_duration_configs (content_type_id, duration_months)
		VALUES ($1, $2)
		ON CONFLICT (content_type_id) DO UPDATE SET
			duration_months = EXCLUDED.duration_months,
			updated_at = now()
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, cfg.ContentTypeID, cfg.DurationMonths).
		Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения длительности: %w", err)
	}
	return nil
}

func (r *defaultDurationRepo) List(ctx context.Context) ([]*model.DefaultDurationConfig, error) {
	query := `
		SELECT content_type_id, duration_months, updated_at
		FROM default_duration_configs
		ORDER BY content_type_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка длительностей: %w", err)
	}
	defer rows.Close()

	var result []*model.DefaultDurationConfig
	for rows.Next() {
		cfg := &model.DefaultDurationConfig{}
		if err := rows.Scan(&cfg.ContentTypeID, &cfg.DurationMonths, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования длительности: %w", err)
		}
		result = append(result, cfg)
	}
	return result, rows.Err()
}

func (r *defaultDurationRepo) Delete(ctx context.Context, contentTypeID int64) error {
	query := `
		DELETE FROM default_duration_configs
		WHERE content_type_id = $1`

	tag, err := r.db.Exec(ctx, query, contentTypeID)
	if err != nil {
		return fmt.Errorf("ошибка удаления длительности: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
