package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// ExpiryRepository — записи сроков истечения и changelist-выборки.
type ExpiryRepository interface {
	// Create создаёт запись истечения для версии.
	Create(ctx context.Context, e *model.ExpiryRecord) error
	// GetByID возвращает запись с данными changelist.
	GetByID(ctx context.Context, id int64) (*model.ExpiryRow, error)
	// GetByVersionID возвращает запись по версии-владельцу.
	GetByVersionID(ctx context.Context, versionID int64) (*model.ExpiryRow, error)
	// UpdateExpires меняет дату истечения записи.
	UpdateExpires(ctx context.Context, id int64, expires *time.Time) (*model.ExpiryRecord, error)
	// List возвращает страницу changelist с фильтрацией.
	// limit <= 0 — без ограничения (полная выборка для экспорта).
	List(ctx context.Context, filters ExpiryListFilters, limit, offset int) ([]*model.ExpiryRow, error)
	// Count возвращает количество записей с фильтрацией.
	Count(ctx context.Context, filters ExpiryListFilters) (int, error)
	// IDsByConcreteType возвращает ID записей, чьи версии записаны
	// на базовый полиморфный тип, а объект несёт конкретный подтип.
	IDsByConcreteType(ctx context.Context, baseTypeID, concreteTypeID int64) ([]int64, error)
}

// ExpiryListFilters — фильтры changelist.
// Полиморфные типы не отличимы по version.content_type_id, поэтому
// фильтр по типу — дизъюнкция: прямое совпадение типа версии ИЛИ
// явный список ID записей, отобранных по конкретному подтипу.
type ExpiryListFilters struct {
	// ContentTypeIDs — неполиморфные типы для прямого сравнения
	ContentTypeIDs []int64
	// IncludeIDs — ID записей полиморфных подтипов
	IncludeIDs []int64
	// HasContentTypeFilter — фильтр по типу применён (пустые списки
	// при взведённом флаге дают пустую выборку, а не полную)
	HasContentTypeFilter bool
	// States — состояния версий
	States []string
	// CreatedBy — UUID автора
	CreatedBy *string
	// ExpiresFrom, ExpiresTo — окно даты истечения (включительно)
	ExpiresFrom *time.Time
	ExpiresTo   *time.Time
	// ExcludeContentTypeID, ExcludeObjectIDs — исключение объектов
	// чужих сайтов (page content)
	ExcludeContentTypeID *int64
	ExcludeObjectIDs     []string
}

type expiryRepo struct {
	db DBTX
}

// NewExpiryRepository создаёт репозиторий записей истечения.
func NewExpiryRepository(db DBTX) ExpiryRepository {
	return &expiryRepo{db: db}
}

// expiryRowSelect — общая часть выборки строки changelist.
const expiryRowSelect = `
	SELECT e.id, e.version_id, e.expires, e.created_by, e.created_at, e.updated_at,
		c.title, ct.id, ct.app_label || '.' || ct.model, v.state,
		COALESCE(NULLIF(a.full_name, ''), a.username)
	FROM expiry_records e
	JOIN versions v ON v.id = e.version_id
	JOIN contents c ON c.object_id = v.object_id
	JOIN content_types ct ON ct.id = COALESCE(c.concrete_content_type_id, v.content_type_id)
	JOIN authors a ON a.id = e.created_by`

func scanExpiryRow(row pgx.Row) (*model.ExpiryRow, error) {
	e := &model.ExpiryRow{}
	err := row.Scan(
		&e.ID, &e.VersionID, &e.Expires, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&e.Title, &e.ContentTypeID, &e.ContentTypeLabel, &e.State, &e.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *expiryRepo) Create(ctx context.Context, e *model.ExpiryRecord) error {
	query := `
		INSERT INTO expiry_records (version_id, expires, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, e.VersionID, e.Expires, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: у версии %d уже есть запись истечения", ErrConflict, e.VersionID)
		}
		return fmt.Errorf("ошибка создания записи истечения: %w", err)
	}
	return nil
}

func (r *expiryRepo) GetByID(ctx context.Context, id int64) (*model.ExpiryRow, error) {
	query := expiryRowSelect + `
	WHERE e.id = $1`

	e, err := scanExpiryRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи истечения: %w", err)
	}
	return e, nil
}

func (r *expiryRepo) GetByVersionID(ctx context.Context, versionID int64) (*model.ExpiryRow, error) {
	query := expiryRowSelect + `
	WHERE e.version_id = $1`

	e, err := scanExpiryRow(r.db.QueryRow(ctx, query, versionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи истечения по версии: %w", err)
	}
	return e, nil
}

func (r *expiryRepo) UpdateExpires(ctx context.Context, id int64, expires *time.Time) (*model.ExpiryRecord, error) {
	query := `
		UPDATE expiry_records
		SET expires = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, version_id, expires, created_by, created_at, updated_at`

	e := &model.ExpiryRecord{}
	err := r.db.QueryRow(ctx, query, id, expires).Scan(
		&e.ID, &e.VersionID, &e.Expires, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления даты истечения: %w", err)
	}
	return e, nil
}

// buildExpiryWhere строит WHERE-условие и аргументы для фильтрации changelist.
func buildExpiryWhere(filters ExpiryListFilters, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if filters.HasContentTypeFilter {
		switch {
		case len(filters.ContentTypeIDs) > 0 && len(filters.IncludeIDs) > 0:
			conditions = append(conditions,
				fmt.Sprintf("(v.content_type_id = ANY($%d) OR e.id = ANY($%d))", argNum, argNum+1))
			args = append(args, filters.ContentTypeIDs, filters.IncludeIDs)
			argNum += 2
		case len(filters.ContentTypeIDs) > 0:
			conditions = append(conditions, fmt.Sprintf("v.content_type_id = ANY($%d)", argNum))
			args = append(args, filters.ContentTypeIDs)
			argNum++
		case len(filters.IncludeIDs) > 0:
			conditions = append(conditions, fmt.Sprintf("e.id = ANY($%d)", argNum))
			args = append(args, filters.IncludeIDs)
			argNum++
		default:
			// фильтр применён, но ни один тип не разрешился — пустая выборка
			conditions = append(conditions, "FALSE")
		}
	}

	if len(filters.States) > 0 {
		conditions = append(conditions, fmt.Sprintf("v.state = ANY($%d)", argNum))
		args = append(args, filters.States)
		argNum++
	}
	if filters.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("e.created_by = $%d", argNum))
		args = append(args, *filters.CreatedBy)
		argNum++
	}
	if filters.ExpiresFrom != nil {
		conditions = append(conditions, fmt.Sprintf("e.expires >= $%d", argNum))
		args = append(args, *filters.ExpiresFrom)
		argNum++
	}
	if filters.ExpiresTo != nil {
		conditions = append(conditions, fmt.Sprintf("e.expires <= $%d", argNum))
		args = append(args, *filters.ExpiresTo)
		argNum++
	}
	if filters.ExcludeContentTypeID != nil && len(filters.ExcludeObjectIDs) > 0 {
		conditions = append(conditions,
			fmt.Sprintf("NOT (v.content_type_id = $%d AND v.object_id = ANY($%d))", argNum, argNum+1))
		args = append(args, *filters.ExcludeContentTypeID, filters.ExcludeObjectIDs)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *expiryRepo) List(ctx context.Context, filters ExpiryListFilters, limit, offset int) ([]*model.ExpiryRow, error) {
	where, args := buildExpiryWhere(filters, 1)
	argNum := len(args) + 1

	query := expiryRowSelect + "\n\t" + where + `
	ORDER BY e.expires NULLS LAST, e.id`

	if limit > 0 {
		query += fmt.Sprintf("\n\tLIMIT $%d OFFSET $%d", argNum, argNum+1)
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей истечения: %w", err)
	}
	defer rows.Close()

	var result []*model.ExpiryRow
	for rows.Next() {
		e := &model.ExpiryRow{}
		if err := rows.Scan(
			&e.ID, &e.VersionID, &e.Expires, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
			&e.Title, &e.ContentTypeID, &e.ContentTypeLabel, &e.State, &e.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи истечения: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *expiryRepo) Count(ctx context.Context, filters ExpiryListFilters) (int, error) {
	where, args := buildExpiryWhere(filters, 1)
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM expiry_records e
		JOIN versions v ON v.id = e.version_id
		JOIN contents c ON c.object_id = v.object_id
		JOIN content_types ct ON ct.id = COALESCE(c.concrete_content_type_id, v.content_type_id)
		JOIN authors a ON a.id = e.created_by
		%s`, where)

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей истечения: %w", err)
	}
	return count, nil
}

func (r *expiryRepo) IDsByConcreteType(ctx context.Context, baseTypeID, concreteTypeID int64) ([]int64, error) {
	query := `
		SELECT e.id
		FROM expiry_records e
		JOIN versions v ON v.id = e.version_id
		JOIN contents c ON c.object_id = v.object_id
		WHERE v.content_type_id = $1
			AND c.concrete_content_type_id = $2`

	rows, err := r.db.Query(ctx, query, baseTypeID, concreteTypeID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей по подтипу: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования id записи: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
