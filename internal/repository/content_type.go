package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// ContentTypeRepository — реестр типов контента CMS.
// Заполняется при регистрации версионируемых моделей; полиморфные
// модели несут ссылку на базовый тип.
type ContentTypeRepository interface {
	// Register создаёт тип контента (или возвращает ErrConflict).
	Register(ctx context.Context, ct *model.ContentType) error
	// GetByID возвращает тип контента по ID.
	GetByID(ctx context.Context, id int64) (*model.ContentType, error)
	// GetByModel возвращает тип контента по паре app/model.
	GetByModel(ctx context.Context, appLabel, modelName string) (*model.ContentType, error)
	// List возвращает все зарегистрированные типы.
	List(ctx context.Context) ([]*model.ContentType, error)
}

type contentTypeRepo struct {
	db DBTX
}

// NewContentTypeRepository создаёт репозиторий типов контента.
func NewContentTypeRepository(db DBTX) ContentTypeRepository {
	return &contentTypeRepo{db: db}
}

func (r *contentTypeRepo) Register(ctx context.Context, ct *model.ContentType) error {
	query := `
		INSERT INTO content_types (app_label, model, polymorphic, base_content_type_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		ct.AppLabel, ct.Model, ct.Polymorphic, ct.BaseContentTypeID,
	).Scan(&ct.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: тип %s.%s уже зарегистрирован", ErrConflict, ct.AppLabel, ct.Model)
		}
		return fmt.Errorf("ошибка регистрации типа контента: %w", err)
	}
	return nil
}

func (r *contentTypeRepo) GetByID(ctx context.Context, id int64) (*model.ContentType, error) {
	query := `
		SELECT id, app_label, model, polymorphic, base_content_type_id
		FROM content_types
		WHERE id = $1`

	ct := &model.ContentType{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ct.ID, &ct.AppLabel, &ct.Model, &ct.Polymorphic, &ct.BaseContentTypeID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения типа контента: %w", err)
	}
	return ct, nil
}

func (r *contentTypeRepo) GetByModel(ctx context.Context, appLabel, modelName string) (*model.ContentType, error) {
	query := `
		SELECT id, app_label, model, polymorphic, base_content_type_id
		FROM content_types
		WHERE app_label = $1 AND model = $2`

	ct := &model.ContentType{}
	err := r.db.QueryRow(ctx, query, appLabel, modelName).Scan(
		&ct.ID, &ct.AppLabel, &ct.Model, &ct.Polymorphic, &ct.BaseContentTypeID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения типа контента: %w", err)
	}
	return ct, nil
}

func (r *contentTypeRepo) List(ctx context.Context) ([]*model.ContentType, error) {
	query := `
		SELECT id, app_label, model, polymorphic, base_content_type_id
		FROM content_types
		ORDER BY app_label, model`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка типов контента: %w", err)
	}
	defer rows.Close()

	var result []*model.ContentType
	for rows.Next() {
		ct := &model.ContentType{}
		if err := rows.Scan(
			&ct.ID, &ct.AppLabel, &ct.Model, &ct.Polymorphic, &ct.BaseContentTypeID,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования типа контента: %w", err)
		}
		result = append(result, ct)
	}
	return result, rows.Err()
}
