package model

// ModerationRequest — заявка модерации версии (зеркало moderation framework).
// Хранится в таблице moderation_requests.
type ModerationRequest struct {
	// ID — идентификатор заявки
	ID int64
	// CollectionID — коллекция модерации
	CollectionID int64
	// VersionID — версия, проходящая модерацию
	VersionID int64
}
