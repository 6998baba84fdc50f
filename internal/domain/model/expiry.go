package model

import "time"

// ExpiryRecord — запись срока истечения версии контента.
// Хранится в таблице expiry_records; не более одной на версию.
// Создаётся автоматически при создании версии, удаляется только
// каскадом через удаление версии.
type ExpiryRecord struct {
	// ID — идентификатор записи
	ID int64
	// VersionID — версия-владелец (UNIQUE)
	VersionID int64
	// Expires — дата истечения (NULL до вычисления)
	Expires *time.Time
	// CreatedBy — UUID автора версии
	CreatedBy string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// ExpiryRow — запись истечения с данными для changelist и CSV-экспорта:
// заголовок контента, тип (для полиморфных моделей — конкретный подтип),
// состояние версии и имя автора.
type ExpiryRow struct {
	ExpiryRecord

	// Title — заголовок объекта контента
	Title string
	// ContentTypeID — эффективный тип контента (конкретный подтип
	// для полиморфных моделей, иначе тип версии)
	ContentTypeID int64
	// ContentTypeLabel — читаемое представление типа ("app.model")
	ContentTypeLabel string
	// State — состояние версии
	State string
	// AuthorName — полное имя или логин автора
	AuthorName string
}
