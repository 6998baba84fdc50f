package model

// Content — объект контента, на который ссылаются версии.
// Хранится в таблице contents.
type Content struct {
	// ObjectID — UUID объекта
	ObjectID string
	// ContentTypeID — тип, записываемый версионированием
	// (для полиморфных моделей — базовый тип)
	ContentTypeID int64
	// ConcreteContentTypeID — конкретный подтип полиморфной модели
	ConcreteContentTypeID *int64
	// Title — заголовок для changelist и экспорта
	Title string
	// SiteID — сайт (только для page content)
	SiteID *int64
}
