package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// VersionRepository — версии контента.
type VersionRepository interface {
	// Create создаёт версию и заполняет ID и Created.
	Create(ctx context.Context, v *model.Version) error
	// GetByID возвращает версию по ID.
	GetByID(ctx context.Context, id int64) (*model.Version, error)
	// UpdateState переводит версию в новое состояние.
	UpdateState(ctx context.Context, id int64, state string) error
}

type versionRepo struct {
	db DBTX
}

// NewVersionRepository создаёт репозиторий версий.
func NewVersionRepository(db DBTX) VersionRepository {
	return &versionRepo{db: db}
}

func (r *versionRepo) Create(ctx context.Context, v *model.Version) error {
	query := `
		INSERT INTO versions (content_type_id, object_id, state, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created`

	err := r.db.QueryRow(ctx, query,
		v.ContentTypeID, v.ObjectID, v.State, v.CreatedBy,
	).Scan(&v.ID, &v.Created)
	if err != nil {
		return fmt.Errorf("ошибка создания версии: %w", err)
	}
	return nil
}

func (r *versionRepo) GetByID(ctx context.Context, id int64) (*model.Version, error) {
	query := `
		SELECT id, content_type_id, object_id, state, created_by, created
		FROM versions
		WHERE id = $1`

	v := &model.Version{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ContentTypeID, &v.ObjectID, &v.State, &v.CreatedBy, &v.Created,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения версии: %w", err)
	}
	return v, nil
}

func (r *versionRepo) UpdateState(ctx context.Context, id int64, state string) error {
	query := `
		UPDATE versions
		SET state = $2
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, state)
	if err != nil {
		return fmt.Errorf("ошибка обновления состояния версии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
