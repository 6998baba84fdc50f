package model

import "fmt"

// ContentType — зарегистрированный версионируемый тип контента.
// Хранится в таблице content_types.
type ContentType struct {
	// ID — идентификатор типа
	ID int64
	// AppLabel — имя приложения CMS
	AppLabel string
	// Model — имя модели
	Model string
	// Polymorphic — полиморфная модель: версионирование записывает
	// на версию базовый тип, конкретный подтип хранится на объекте контента
	Polymorphic bool
	// BaseContentTypeID — базовый тип для полиморфных моделей
	BaseContentTypeID *int64
}

// Label возвращает читаемое представление типа ("app.model").
func (ct *ContentType) Label() string {
	return fmt.Sprintf("%s.%s", ct.AppLabel, ct.Model)
}

// BaseID возвращает идентификатор базового типа.
// Для неполиморфных моделей базовый тип — сам тип.
func (ct *ContentType) BaseID() int64 {
	if ct.BaseContentTypeID != nil {
		return *ct.BaseContentTypeID
	}
	return ct.ID
}
