package model

import "time"

// Version — версия контента, отслеживаемая версионированием CMS.
// Хранится в таблице versions.
type Version struct {
	// ID — идентификатор версии
	ID int64
	// ContentTypeID — тип контента, записанный версионированием
	ContentTypeID int64
	// ObjectID — UUID объекта контента
	ObjectID string
	// State — состояние жизненного цикла (draft, published, unpublished, archived)
	State string
	// CreatedBy — UUID автора версии
	CreatedBy string
	// Created — время создания версии
	Created time.Time
}
