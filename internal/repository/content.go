package repository

import (
	"context"
	"fmt"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// ContentRepository — объекты контента, на которые ссылаются версии.
type ContentRepository interface {
	// Upsert создаёт объект контента или обновляет заголовок и сайт.
	Upsert(ctx context.Context, c *model.Content) error
	// ListObjectIDsNotOnSite возвращает UUID объектов заданного типа,
	// не принадлежащих сайту siteID. Используется для исключения
	// чужих page content из changelist.
	ListObjectIDsNotOnSite(ctx context.Context, contentTypeID, siteID int64) ([]string, error)
}

type contentRepo struct {
	db DBTX
}

// NewContentRepository создаёт репозиторий объектов контента.
func NewContentRepository(db DBTX) ContentRepository {
	return &contentRepo{db: db}
}

func (r *contentRepo) Upsert(ctx context.Context, c *model.Content) error {
	query := `
		INSERT INTO contents (object_id, content_type_id, concrete_content_type_id, title, site_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (object_id) DO UPDATE SET
			title = EXCLUDED.title,
			site_id = EXCLUDED.site_id`

	_, err := r.db.Exec(ctx, query,
		c.ObjectID, c.ContentTypeID, c.ConcreteContentTypeID, c.Title, c.SiteID,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения объекта контента: %w", err)
	}
	return nil
}

func (r *contentRepo) ListObjectIDsNotOnSite(ctx context.Context, contentTypeID, siteID int64) ([]string, error) {
	query := `
		SELECT object_id
		FROM contents
		WHERE content_type_id = $1
			AND (site_id IS NULL OR site_id != $2)`

	rows, err := r.db.Query(ctx, query, contentTypeID, siteID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения исключаемых объектов: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования object_id: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
