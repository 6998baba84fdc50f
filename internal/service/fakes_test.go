package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
	"github.com/arturkryukov/cms-content-expiry/internal/repository"
)

// testLogger — логгер, пишущий в никуда.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- In-memory фейки репозиториев ---

type fakeContentTypeRepo struct {
	byID   map[int64]*model.ContentType
	nextID int64
}

func newFakeContentTypeRepo() *fakeContentTypeRepo {
	return &fakeContentTypeRepo{byID: make(map[int64]*model.ContentType), nextID: 1}
}

func (f *fakeContentTypeRepo) add(ct *model.ContentType) *model.ContentType {
	if ct.ID == 0 {
		ct.ID = f.nextID
		f.nextID++
	}
	f.byID[ct.ID] = ct
	return ct
}

func (f *fakeContentTypeRepo) Register(_ context.Context, ct *model.ContentType) error {
	f.add(ct)
	return nil
}

func (f *fakeContentTypeRepo) GetByID(_ context.Context, id int64) (*model.ContentType, error) {
	ct, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ct, nil
}

func (f *fakeContentTypeRepo) GetByModel(_ context.Context, appLabel, modelName string) (*model.ContentType, error) {
	for _, ct := range f.byID {
		if ct.AppLabel == appLabel && ct.Model == modelName {
			return ct, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeContentTypeRepo) List(_ context.Context) ([]*model.ContentType, error) {
	var result []*model.ContentType
	for _, ct := range f.byID {
		result = append(result, ct)
	}
	return result, nil
}

type fakeExpiryRepo struct {
	rows        []*model.ExpiryRow
	byVersion   map[int64]*model.ExpiryRow
	polyIDs     map[int64][]int64 // concreteTypeID -> record IDs
	lastFilters repository.ExpiryListFilters
	updates     map[int64]*time.Time
}

func newFakeExpiryRepo() *fakeExpiryRepo {
	return &fakeExpiryRepo{
		byVersion: make(map[int64]*model.ExpiryRow),
		polyIDs:   make(map[int64][]int64),
		updates:   make(map[int64]*time.Time),
	}
}

func (f *fakeExpiryRepo) Create(_ context.Context, e *model.ExpiryRecord) error {
	e.ID = int64(len(f.byVersion) + 1)
	return nil
}

func (f *fakeExpiryRepo) GetByID(_ context.Context, id int64) (*model.ExpiryRow, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	for _, row := range f.byVersion {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExpiryRepo) GetByVersionID(_ context.Context, versionID int64) (*model.ExpiryRow, error) {
	row, ok := f.byVersion[versionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row, nil
}

func (f *fakeExpiryRepo) UpdateExpires(_ context.Context, id int64, expires *time.Time) (*model.ExpiryRecord, error) {
	for _, row := range f.byVersion {
		if row.ID == id {
			f.updates[id] = expires
			row.Expires = expires
			return &row.ExpiryRecord, nil
		}
	}
	for _, row := range f.rows {
		if row.ID == id {
			f.updates[id] = expires
			row.Expires = expires
			return &row.ExpiryRecord, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExpiryRepo) List(_ context.Context, filters repository.ExpiryListFilters, _, _ int) ([]*model.ExpiryRow, error) {
	f.lastFilters = filters
	return f.rows, nil
}

func (f *fakeExpiryRepo) Count(_ context.Context, filters repository.ExpiryListFilters) (int, error) {
	f.lastFilters = filters
	return len(f.rows), nil
}

func (f *fakeExpiryRepo) IDsByConcreteType(_ context.Context, _, concreteTypeID int64) ([]int64, error) {
	return f.polyIDs[concreteTypeID], nil
}

type fakeContentRepo struct {
	notOnSite map[int64][]string // siteID -> object IDs
	listCalls int
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{notOnSite: make(map[int64][]string)}
}

func (f *fakeContentRepo) Upsert(_ context.Context, _ *model.Content) error { return nil }

func (f *fakeContentRepo) ListObjectIDsNotOnSite(_ context.Context, _, siteID int64) ([]string, error) {
	f.listCalls++
	return f.notOnSite[siteID], nil
}

type fakeVersionRepo struct {
	byID   map[int64]*model.Version
	nextID int64
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{byID: make(map[int64]*model.Version), nextID: 1}
}

func (f *fakeVersionRepo) Create(_ context.Context, v *model.Version) error {
	v.ID = f.nextID
	f.nextID++
	v.Created = time.Now()
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVersionRepo) GetByID(_ context.Context, id int64) (*model.Version, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVersionRepo) UpdateState(_ context.Context, id int64, state string) error {
	v, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.State = state
	return nil
}

type fakeDurationRepo struct {
	cfgs map[int64]*model.DefaultDurationConfig
}

func newFakeDurationRepo() *fakeDurationRepo {
	return &fakeDurationRepo{cfgs: make(map[int64]*model.DefaultDurationConfig)}
}

func (f *fakeDurationRepo) GetByContentType(_ context.Context, contentTypeID int64) (*model.DefaultDurationConfig, error) {
	cfg, ok := f.cfgs[contentTypeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}

func (f *fakeDurationRepo) Upsert(_ context.Context, cfg *model.DefaultDurationConfig) error {
	cfg.UpdatedAt = time.Now()
	f.cfgs[cfg.ContentTypeID] = cfg
	return nil
}

func (f *fakeDurationRepo) List(_ context.Context) ([]*model.DefaultDurationConfig, error) {
	var result []*model.DefaultDurationConfig
	for _, cfg := range f.cfgs {
		result = append(result, cfg)
	}
	return result, nil
}

func (f *fakeDurationRepo) Delete(_ context.Context, contentTypeID int64) error {
	if _, ok := f.cfgs[contentTypeID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.cfgs, contentTypeID)
	return nil
}

type fakeModerationRepo struct {
	byID         map[int64]*model.ModerationRequest
	byCollection map[int64][]*model.ModerationRequest
}

func newFakeModerationRepo() *fakeModerationRepo {
	return &fakeModerationRepo{
		byID:         make(map[int64]*model.ModerationRequest),
		byCollection: make(map[int64][]*model.ModerationRequest),
	}
}

func (f *fakeModerationRepo) add(m *model.ModerationRequest) {
	f.byID[m.ID] = m
	f.byCollection[m.CollectionID] = append(f.byCollection[m.CollectionID], m)
}

func (f *fakeModerationRepo) Create(_ context.Context, m *model.ModerationRequest) error {
	m.ID = int64(len(f.byID) + 1)
	f.add(m)
	return nil
}

func (f *fakeModerationRepo) GetByID(_ context.Context, id int64) (*model.ModerationRequest, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeModerationRepo) ListByCollection(_ context.Context, collectionID int64) ([]*model.ModerationRequest, error) {
	return f.byCollection[collectionID], nil
}
