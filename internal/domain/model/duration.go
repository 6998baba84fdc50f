package model

import "time"

// DefaultDurationConfig — длительность по умолчанию для типа контента.
// Хранится в таблице default_duration_configs; не более одной записи
// на тип. Отсутствие записи — валидно: применяется глобальный default.
type DefaultDurationConfig struct {
	// ContentTypeID — тип контента (PRIMARY KEY)
	ContentTypeID int64
	// DurationMonths — длительность в месяцах
	DurationMonths int
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
