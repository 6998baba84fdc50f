package repository

import (
	"context"
	"fmt"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// AuthorRepository — справочник пользователей CMS.
type AuthorRepository interface {
	// Upsert создаёт пользователя или обновляет его имя.
	Upsert(ctx context.Context, a *model.Author) error
	// ListWithExpiryRecords возвращает только авторов, у которых есть
	// хотя бы одна запись истечения. Используется фильтром по автору,
	// чтобы не показывать пользователей без записей.
	ListWithExpiryRecords(ctx context.Context) ([]*model.Author, error)
}

type authorRepo struct {
	db DBTX
}

// NewAuthorRepository создаёт репозиторий пользователей.
func NewAuthorRepository(db DBTX) AuthorRepository {
	return &authorRepo{db: db}
}

func (r *authorRepo) Upsert(ctx context.Context, a *model.Author) error {
	query := `
		INSERT INTO authors (id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			full_name = EXCLUDED.full_name`

	_, err := r.db.Exec(ctx, query, a.ID, a.Username, a.FullName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: логин %s уже занят", ErrConflict, a.Username)
		}
		return fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return nil
}

func (r *authorRepo) ListWithExpiryRecords(ctx context.Context) ([]*model.Author, error) {
	query := `
		SELECT DISTINCT a.id, a.username, a.full_name
		FROM authors a
		JOIN expiry_records e ON e.created_by = a.id
		ORDER BY a.username`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка авторов: %w", err)
	}
	defer rows.Close()

	var result []*model.Author
	for rows.Next() {
		a := &model.Author{}
		if err := rows.Scan(&a.ID, &a.Username, &a.FullName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
