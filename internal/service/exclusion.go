// exclusion.go — исключение page content чужих сайтов из changelist.
//
// Запросы changelist с фильтром по сайту не должны показывать страницы
// других сайтов. Список исключаемых объектов считается по таблице
// contents и кешируется по siteID с TTL: выборка дорогая, а состав
// страниц меняется редко.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// pageContentApp, pageContentModel — тип page content в реестре типов.
const (
	pageContentApp   = "cms"
	pageContentModel = "pagecontent"
)

// exclusionCacheSize — максимум сайтов в кеше исключений.
const exclusionCacheSize = 128

// SiteExclusion — объекты page content, исключаемые из changelist сайта.
type SiteExclusion struct {
	// ContentTypeID — тип page content
	ContentTypeID int64
	// ObjectIDs — UUID объектов, не принадлежащих сайту
	ObjectIDs []string
}

// PageContentExclusions — кеширующий вычислитель исключений по сайту.
type PageContentExclusions struct {
	contents     repository.ContentRepository
	contentTypes repository.ContentTypeRepository
	cache        *expirable.LRU[int64, *SiteExclusion]
	logger       *slog.Logger
}

// NewPageContentExclusions создаёт вычислитель исключений с TTL-кешем.
func NewPageContentExclusions(
	contents repository.ContentRepository,
	contentTypes repository.ContentTypeRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *PageContentExclusions {
	return &PageContentExclusions{
		contents:     contents,
		contentTypes: contentTypes,
		cache:        expirable.NewLRU[int64, *SiteExclusion](exclusionCacheSize, nil, ttl),
		logger:       logger.With(slog.String("component", "page-exclusions")),
	}
}

// For возвращает исключение для сайта siteID.
// Если тип page content не зарегистрирован — исключений нет (nil, nil).
func (p *PageContentExclusions) For(ctx context.Context, siteID int64) (*SiteExclusion, error) {
	if cached, ok := p.cache.Get(siteID); ok {
		return cached, nil
	}

	pageType, err := p.contentTypes.GetByModel(ctx, pageContentApp, pageContentModel)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения типа page content: %w", err)
	}

	objectIDs, err := p.contents.ListObjectIDsNotOnSite(ctx, pageType.ID, siteID)
	if err != nil {
		return nil, fmt.Errorf("ошибка вычисления исключений сайта %d: %w", siteID, err)
	}

	excl := &SiteExclusion{ContentTypeID: pageType.ID, ObjectIDs: objectIDs}
	p.cache.Add(siteID, excl)

	p.logger.Debug("Исключения сайта вычислены",
		slog.Int64("site_id", siteID),
		slog.Int("excluded", len(objectIDs)))
	return excl, nil
}

// Invalidate сбрасывает кеш исключений сайта.
// Вызывается при создании версии page content.
func (p *PageContentExclusions) Invalidate(siteID int64) {
	p.cache.Remove(siteID)
}
