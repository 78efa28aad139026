package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/kb"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type fakeKBSourceRepo struct {
	fetched []uuid.UUID
}

func (f *fakeKBSourceRepo) Create(_ context.Context, _ *gorm.DB, s *types.KBSource) (*types.KBSource, error) {
	return s, nil
}
func (f *fakeKBSourceRepo) GetByID(context.Context, *gorm.DB, uuid.UUID) (*types.KBSource, error) {
	return nil, nil
}
func (f *fakeKBSourceRepo) List(context.Context, *gorm.DB, uuid.UUID) ([]*types.KBSource, error) {
	return nil, nil
}
func (f *fakeKBSourceRepo) ListEnabled(context.Context, *gorm.DB, uuid.UUID) ([]*types.KBSource, error) {
	return nil, nil
}
func (f *fakeKBSourceRepo) UpdateFields(context.Context, *gorm.DB, uuid.UUID, map[string]interface{}) error {
	return nil
}
func (f *fakeKBSourceRepo) UpdateFetched(_ context.Context, _ *gorm.DB, id uuid.UUID, _, _ string, _ time.Time) error {
	f.fetched = append(f.fetched, id)
	return nil
}
func (f *fakeKBSourceRepo) EnsureByLocation(_ context.Context, _ *gorm.DB, s *types.KBSource) (*types.KBSource, error) {
	return s, nil
}

type fakeFetcher struct {
	doc *kb.FetchedDocument
	err error
}

func (f *fakeFetcher) FetchSource(context.Context, *types.KBSource) (*kb.FetchedDocument, error) {
	return f.doc, f.err
}

func newIndexerFixture(t *testing.T, fetcher kb.Fetcher) (*kbIndexerService, *fakeKBSourceRepo, *fakeVectorStore) {
	t.Helper()
	sources := &fakeKBSourceRepo{}
	store := &fakeVectorStore{}
	svc := &kbIndexerService{
		log:      testLog(t),
		sources:  sources,
		fetcher:  fetcher,
		embedder: NewHashEmbedder(testLog(t), 16),
		store:    store,
	}
	return svc, sources, store
}

func TestIndexSourceSkipsExpired(t *testing.T) {
	svc, sources, store := newIndexerFixture(t, &fakeFetcher{})
	past := time.Now().Add(-time.Hour)
	url := "https://junglecity.ru/old"

	n, _, _, err := svc.indexSource(context.Background(),
		&types.Park{ID: uuid.New(), Slug: "nn"},
		uuid.New(), "col",
		&types.KBSource{ID: uuid.New(), SourceType: types.KBSourceTypeURL, SourceURL: &url, ExpiresAt: &past},
	)
	if err != nil {
		t.Fatalf("indexSource: %v", err)
	}
	if n != 0 || len(store.upserted) != 0 || len(sources.fetched) != 0 {
		t.Fatalf("expired source must be skipped entirely")
	}
}

func TestIndexSourceSkipsFetchFailure(t *testing.T) {
	svc, _, store := newIndexerFixture(t, &fakeFetcher{err: errors.New("boom")})
	url := "https://junglecity.ru/rules"

	n, _, _, err := svc.indexSource(context.Background(),
		&types.Park{ID: uuid.New(), Slug: "nn"},
		uuid.New(), "col",
		&types.KBSource{ID: uuid.New(), SourceType: types.KBSourceTypeURL, SourceURL: &url},
	)
	if err != nil {
		t.Fatalf("fetch failure must not fail the build: %v", err)
	}
	if n != 0 || len(store.upserted) != 0 {
		t.Fatalf("failed fetch must produce no points")
	}
}

func TestIndexSourceSkipsUnchangedHash(t *testing.T) {
	hash := "abc123"
	svc, sources, store := newIndexerFixture(t, &fakeFetcher{doc: &kb.FetchedDocument{
		Text:     "Правила посещения.",
		TextHash: hash,
	}})
	url := "https://junglecity.ru/rules"

	n, _, _, err := svc.indexSource(context.Background(),
		&types.Park{ID: uuid.New(), Slug: "nn"},
		uuid.New(), "col",
		&types.KBSource{ID: uuid.New(), SourceType: types.KBSourceTypeURL, SourceURL: &url, LastHash: &hash},
	)
	if err != nil {
		t.Fatalf("indexSource: %v", err)
	}
	if n != 0 || len(store.upserted) != 0 || len(sources.fetched) != 0 {
		t.Fatalf("unchanged content must be skipped")
	}
}

func TestIndexSourceUpsertsChunks(t *testing.T) {
	svc, sources, store := newIndexerFixture(t, &fakeFetcher{doc: &kb.FetchedDocument{
		Text:        "Вход в парк только в носках. Дети до 3 лет бесплатно.",
		Title:       "Правила",
		SourceURL:   "https://junglecity.ru/rules",
		ContentType: "text/html",
		TextHash:    "h1",
	}})
	indexID := uuid.New()
	srcID := uuid.New()
	url := "https://junglecity.ru/rules"

	n, _, _, err := svc.indexSource(context.Background(),
		&types.Park{ID: uuid.New(), Slug: "nn"},
		indexID, "col",
		&types.KBSource{ID: srcID, SourceType: types.KBSourceTypeURL, SourceURL: &url},
	)
	if err != nil {
		t.Fatalf("indexSource: %v", err)
	}
	if n != 1 || len(store.upserted) != 1 {
		t.Fatalf("chunks: want=1 got n=%d upserted=%d", n, len(store.upserted))
	}

	payload := store.upserted[0].Payload
	if payload["park_slug"] != "nn" {
		t.Fatalf("park_slug payload: got=%v", payload["park_slug"])
	}
	if payload["kb_index_id"] != indexID.String() {
		t.Fatalf("kb_index_id payload: got=%v", payload["kb_index_id"])
	}
	if payload["text_hash"] != "h1" {
		t.Fatalf("text_hash payload: got=%v", payload["text_hash"])
	}
	if payload["expires_at_epoch"] != noExpiryEpoch {
		t.Fatalf("expires_at_epoch must default to %d, got %v", noExpiryEpoch, payload["expires_at_epoch"])
	}
	if len(sources.fetched) != 1 || sources.fetched[0] != srcID {
		t.Fatalf("fetch bookkeeping missing for %s", srcID)
	}
}

func TestIndexSourceHonorsSourceExpiry(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	svc, _, store := newIndexerFixture(t, &fakeFetcher{doc: &kb.FetchedDocument{
		Text:     "Акция до конца месяца.",
		TextHash: "h2",
	}})
	url := "https://junglecity.ru/promo"

	_, _, _, err := svc.indexSource(context.Background(),
		&types.Park{ID: uuid.New(), Slug: "nn"},
		uuid.New(), "col",
		&types.KBSource{ID: uuid.New(), SourceType: types.KBSourceTypeURL, SourceURL: &url, ExpiresAt: &future},
	)
	if err != nil {
		t.Fatalf("indexSource: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted: want=1 got=%d", len(store.upserted))
	}
	if store.upserted[0].Payload["expires_at_epoch"] != future.Unix() {
		t.Fatalf("expires_at_epoch: want=%d got=%v", future.Unix(), store.upserted[0].Payload["expires_at_epoch"])
	}
}
