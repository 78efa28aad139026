package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type fakeFactsRepo struct {
	contacts []*types.ParkContact
	location *types.ParkLocation
	hours    []*types.OpeningHour
	pages    []*types.SitePage
}

func (f *fakeFactsRepo) GetContacts(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.ParkContact, error) {
	return f.contacts, nil
}

func (f *fakeFactsRepo) ReplaceContacts(_ context.Context, _ *gorm.DB, _ uuid.UUID, rows []*types.ParkContact) error {
	f.contacts = rows
	return nil
}

func (f *fakeFactsRepo) GetLocation(_ context.Context, _ *gorm.DB, _ uuid.UUID) (*types.ParkLocation, error) {
	return f.location, nil
}

func (f *fakeFactsRepo) UpsertLocation(_ context.Context, _ *gorm.DB, row *types.ParkLocation) error {
	f.location = row
	return nil
}

func (f *fakeFactsRepo) GetOpeningHours(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.OpeningHour, error) {
	return f.hours, nil
}

func (f *fakeFactsRepo) ReplaceOpeningHours(_ context.Context, _ *gorm.DB, _ uuid.UUID, rows []*types.OpeningHour) error {
	f.hours = rows
	return nil
}

func (f *fakeFactsRepo) GetTransport(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.TransportNote, error) {
	return nil, nil
}

func (f *fakeFactsRepo) ReplaceTransport(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ []*types.TransportNote) error {
	return nil
}

func (f *fakeFactsRepo) GetSitePages(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.SitePage, error) {
	return f.pages, nil
}

func (f *fakeFactsRepo) ReplaceSitePages(_ context.Context, _ *gorm.DB, _ uuid.UUID, rows []*types.SitePage) error {
	f.pages = rows
	return nil
}

func (f *fakeFactsRepo) GetLegalDocuments(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.LegalDocument, error) {
	return nil, nil
}

func (f *fakeFactsRepo) ReplaceLegalDocuments(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ []*types.LegalDocument) error {
	return nil
}

func (f *fakeFactsRepo) GetPromotions(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.Promotion, error) {
	return nil, nil
}

func (f *fakeFactsRepo) ReplacePromotions(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ []*types.Promotion) error {
	return nil
}

func (f *fakeFactsRepo) GetFAQ(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.FAQEntry, error) {
	return nil, nil
}

func (f *fakeFactsRepo) ReplaceFAQ(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ []*types.FAQEntry) error {
	return nil
}

type fakeVersionRepo struct {
	pointer  *types.ParkPublishedState
	versions map[uuid.UUID]*types.FactsVersion
}

func (f *fakeVersionRepo) Create(_ context.Context, _ *gorm.DB, version *types.FactsVersion) (*types.FactsVersion, error) {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	if f.versions == nil {
		f.versions = map[uuid.UUID]*types.FactsVersion{}
	}
	f.versions[version.ID] = version
	return version, nil
}

func (f *fakeVersionRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.FactsVersion, error) {
	return f.versions[id], nil
}

func (f *fakeVersionRepo) ListPublished(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ int) ([]*types.FactsVersion, error) {
	return nil, nil
}

func (f *fakeVersionRepo) GetPreviousPublished(_ context.Context, _ *gorm.DB, _ uuid.UUID, before time.Time) (*types.FactsVersion, error) {
	var best *types.FactsVersion
	for _, v := range f.versions {
		if v.PublishedAt == nil || !v.PublishedAt.Before(before) {
			continue
		}
		if best == nil || v.PublishedAt.After(*best.PublishedAt) {
			best = v
		}
	}
	return best, nil
}

func (f *fakeVersionRepo) GetPointer(_ context.Context, _ *gorm.DB, _ uuid.UUID) (*types.ParkPublishedState, error) {
	return f.pointer, nil
}

func (f *fakeVersionRepo) SetPointer(_ context.Context, _ *gorm.DB, parkID, versionID uuid.UUID) error {
	f.pointer = &types.ParkPublishedState{ParkID: parkID, PublishedVersionID: versionID}
	return nil
}

func strPtr(s string) *string { return &s }

func governanceFixture(t *testing.T, facts *fakeFactsRepo, versions *fakeVersionRepo) FactsGovernanceService {
	t.Helper()
	return &factsGovernanceService{
		log:      testLog(t),
		facts:    facts,
		versions: versions,
	}
}

func TestBuildLiveViewDerivedFields(t *testing.T) {
	facts := &fakeFactsRepo{
		contacts: []*types.ParkContact{
			{Type: "phone", Value: "+78312000000"},
			{Type: "phone", Value: "+79200000000", IsPrimary: true},
		},
		hours: []*types.OpeningHour{
			{Dow: 0, OpenTime: strPtr("10:00"), CloseTime: strPtr("22:00")},
			{Dow: 1, OpenTime: strPtr("10:00"), CloseTime: strPtr("22:00")},
			{Dow: 6, IsClosed: true},
		},
		pages: []*types.SitePage{
			{Key: "prices_tickets", Path: strPtr("/tickets")},
		},
	}
	svc := governanceFixture(t, facts, &fakeVersionRepo{})

	view, err := svc.BuildLiveView(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("BuildLiveView: %v", err)
	}
	if view.PrimaryPhone != "+79200000000" {
		t.Fatalf("primary phone: want=%q got=%q", "+79200000000", view.PrimaryPhone)
	}
	if view.OpeningHoursText == "" {
		t.Fatalf("expected derived opening hours text")
	}
	page, ok := view.SitePages["prices_tickets"]
	if !ok || page.Path == nil || *page.Path != "/tickets" {
		t.Fatalf("site page map: got %+v", view.SitePages)
	}
}

func TestPublishedViewWithoutPointer(t *testing.T) {
	svc := governanceFixture(t, &fakeFactsRepo{}, &fakeVersionRepo{})

	version, view, err := svc.PublishedView(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("PublishedView: %v", err)
	}
	if version != nil || view != nil {
		t.Fatalf("expected nil version and view, got %v / %v", version, view)
	}
}

func TestPublishedViewDecodesSnapshot(t *testing.T) {
	parkID := uuid.New()
	snapshot, err := json.Marshal(domain.FactsView{
		Contacts:     []domain.ContactFact{{Type: "phone", Value: "+79200000000", IsPrimary: true}},
		PrimaryPhone: "+79200000000",
	})
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	now := time.Now().UTC()
	versions := &fakeVersionRepo{}
	stored, err := versions.Create(context.Background(), nil, &types.FactsVersion{
		ParkID:       parkID,
		Status:       types.FactsVersionPublished,
		SnapshotJSON: datatypes.JSON(snapshot),
		PublishedAt:  &now,
	})
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	if err := versions.SetPointer(context.Background(), nil, parkID, stored.ID); err != nil {
		t.Fatalf("set pointer: %v", err)
	}
	svc := governanceFixture(t, &fakeFactsRepo{}, versions)

	version, view, err := svc.PublishedView(context.Background(), parkID)
	if err != nil {
		t.Fatalf("PublishedView: %v", err)
	}
	if version == nil || version.ID != stored.ID {
		t.Fatalf("version: want=%v got=%v", stored.ID, version)
	}
	if view == nil || view.PrimaryPhone != "+79200000000" {
		t.Fatalf("decoded view: got %+v", view)
	}
	if view.SitePages == nil {
		t.Fatalf("expected non-nil site pages map after decode")
	}
}
