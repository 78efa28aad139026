package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/types"
)

// FactsGovernanceService owns the published-snapshot lifecycle. Admin
// edits touch live tables only; the chat path reads exclusively through
// the published pointer, so an unfinished edit session is never visible
// to users.
type FactsGovernanceService interface {
	BuildLiveView(ctx context.Context, parkID uuid.UUID) (*domain.FactsView, error)
	Publish(ctx context.Context, parkID uuid.UUID, actor string, notes *string) (*types.FactsVersion, error)
	Rollback(ctx context.Context, parkID uuid.UUID, actor string) (*types.FactsVersion, error)
	ListVersions(ctx context.Context, parkID uuid.UUID, limit int) ([]*types.FactsVersion, error)
	PublishedView(ctx context.Context, parkID uuid.UUID) (*types.FactsVersion, *domain.FactsView, error)
}

type factsGovernanceService struct {
	log      *logger.Logger
	db       *gorm.DB
	facts    repos.FactsRepo
	versions repos.FactsVersionRepo
	changes  repos.ChangeLogRepo
}

func NewFactsGovernanceService(
	log *logger.Logger,
	db *gorm.DB,
	facts repos.FactsRepo,
	versions repos.FactsVersionRepo,
	changes repos.ChangeLogRepo,
) FactsGovernanceService {
	return &factsGovernanceService{
		log:      log.With("service", "FactsGovernanceService"),
		db:       db,
		facts:    facts,
		versions: versions,
		changes:  changes,
	}
}

// BuildLiveView assembles the current live tables into the snapshot
// shape, including the derived opening-hours text and primary phone.
func (s *factsGovernanceService) BuildLiveView(ctx context.Context, parkID uuid.UUID) (*domain.FactsView, error) {
	view := &domain.FactsView{
		SitePages: map[string]domain.SitePageFact{},
	}

	contacts, err := s.facts.GetContacts(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	for _, c := range contacts {
		view.Contacts = append(view.Contacts, domain.ContactFact{
			Type:      c.Type,
			Value:     c.Value,
			IsPrimary: c.IsPrimary,
		})
	}

	location, err := s.facts.GetLocation(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if location != nil {
		view.Location = &domain.LocationFact{
			AddressText: location.AddressText,
			City:        location.City,
			Lat:         location.Lat,
			Lon:         location.Lon,
		}
	}

	hours, err := s.facts.GetOpeningHours(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load opening hours: %w", err)
	}
	for _, h := range hours {
		view.OpeningHours = append(view.OpeningHours, domain.OpeningHourFact{
			Dow:       h.Dow,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
			IsClosed:  h.IsClosed,
			Note:      h.Note,
		})
	}

	transport, err := s.facts.GetTransport(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load transport: %w", err)
	}
	for _, t := range transport {
		view.Transport = append(view.Transport, domain.TransportFact{Kind: t.Kind, Text: t.Text})
	}

	pages, err := s.facts.GetSitePages(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load site pages: %w", err)
	}
	for _, p := range pages {
		view.SitePages[p.Key] = domain.SitePageFact{
			Key:         p.Key,
			Path:        p.Path,
			AbsoluteURL: p.AbsoluteURL,
		}
	}

	legal, err := s.facts.GetLegalDocuments(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load legal documents: %w", err)
	}
	for _, d := range legal {
		view.LegalDocuments = append(view.LegalDocuments, domain.LegalDocumentFact{
			Key:         d.Key,
			Title:       d.Title,
			Path:        d.Path,
			AbsoluteURL: d.AbsoluteURL,
		})
	}

	promos, err := s.facts.GetPromotions(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load promotions: %w", err)
	}
	for _, p := range promos {
		view.Promotions = append(view.Promotions, domain.PromotionFact{
			Key:       p.Key,
			Title:     p.Title,
			Text:      p.Text,
			ValidFrom: p.ValidFrom,
			ValidTo:   p.ValidTo,
			ExpiresAt: p.ExpiresAt,
		})
	}

	faq, err := s.facts.GetFAQ(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load faq: %w", err)
	}
	for _, f := range faq {
		view.FAQ = append(view.FAQ, domain.FAQFact{
			Question: f.Question,
			Answer:   f.Answer,
			IsActive: f.IsActive,
		})
	}

	view.OpeningHoursText = domain.OpeningHoursText(view.OpeningHours)
	view.PrimaryPhone = domain.PrimaryPhone(view.Contacts)
	return view, nil
}

// Publish snapshots the live tables into an immutable version and moves
// the park pointer to it, all in one transaction.
func (s *factsGovernanceService) Publish(ctx context.Context, parkID uuid.UUID, actor string, notes *string) (*types.FactsVersion, error) {
	view, err := s.BuildLiveView(ctx, parkID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateContacts(view.Contacts); err != nil {
		return nil, err
	}
	if err := domain.ValidateOpeningHours(view.OpeningHours); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("marshal facts snapshot: %w", err)
	}

	now := time.Now().UTC()
	version := &types.FactsVersion{
		ParkID:       parkID,
		Status:       types.FactsVersionPublished,
		SnapshotJSON: datatypes.JSON(snapshot),
		PublishedAt:  &now,
		PublishedBy:  &actor,
		Notes:        notes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.versions.Create(ctx, tx, version); err != nil {
			return fmt.Errorf("create facts version: %w", err)
		}
		if err := s.versions.SetPointer(ctx, tx, parkID, version.ID); err != nil {
			return fmt.Errorf("move published pointer: %w", err)
		}
		return s.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       actor,
			EntityTable: "facts_version",
			Action:      "publish",
			AfterJSON:   datatypes.JSON(snapshot),
			Reason:      notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("facts published", "park_id", parkID, "version_id", version.ID, "actor", actor)
	return version, nil
}

// Rollback moves the pointer exactly one published version back from
// the current one. It deliberately does not walk a history stack:
// calling it twice without an intervening publish resolves to the same
// target both times.
func (s *factsGovernanceService) Rollback(ctx context.Context, parkID uuid.UUID, actor string) (*types.FactsVersion, error) {
	var previous *types.FactsVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pointer, err := s.versions.GetPointer(ctx, tx, parkID)
		if err != nil {
			return fmt.Errorf("load published pointer: %w", err)
		}
		if pointer == nil {
			return apierr.Conflict("no published version to rollback")
		}

		current, err := s.versions.GetByID(ctx, tx, pointer.PublishedVersionID)
		if err != nil {
			return fmt.Errorf("load current version: %w", err)
		}
		if current == nil || current.PublishedAt == nil {
			return apierr.Conflict("no published version to rollback")
		}

		previous, err = s.versions.GetPreviousPublished(ctx, tx, parkID, *current.PublishedAt)
		if err != nil {
			return fmt.Errorf("load previous version: %w", err)
		}
		if previous == nil {
			return apierr.Conflict("no previous published version to rollback to")
		}

		if err := s.versions.SetPointer(ctx, tx, parkID, previous.ID); err != nil {
			return fmt.Errorf("move published pointer: %w", err)
		}
		return s.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       actor,
			EntityTable: "park_published_state",
			Action:      "rollback",
			BeforeJSON:  datatypes.JSON(mustJSONBytes(map[string]string{"published_version_id": current.ID.String()})),
			AfterJSON:   datatypes.JSON(mustJSONBytes(map[string]string{"published_version_id": previous.ID.String()})),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("facts rolled back", "park_id", parkID, "version_id", previous.ID, "actor", actor)
	return previous, nil
}

func (s *factsGovernanceService) ListVersions(ctx context.Context, parkID uuid.UUID, limit int) ([]*types.FactsVersion, error) {
	return s.versions.ListPublished(ctx, nil, parkID, limit)
}

// PublishedView resolves the park pointer to its snapshot. A park with
// no published facts yet yields (nil, nil, nil); the composer falls
// back to manager handoff phrasing in that case.
func (s *factsGovernanceService) PublishedView(ctx context.Context, parkID uuid.UUID) (*types.FactsVersion, *domain.FactsView, error) {
	pointer, err := s.versions.GetPointer(ctx, nil, parkID)
	if err != nil {
		return nil, nil, fmt.Errorf("load published pointer: %w", err)
	}
	if pointer == nil {
		return nil, nil, nil
	}
	version, err := s.versions.GetByID(ctx, nil, pointer.PublishedVersionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load published version: %w", err)
	}
	if version == nil {
		return nil, nil, nil
	}

	var view domain.FactsView
	if err := json.Unmarshal(version.SnapshotJSON, &view); err != nil {
		return nil, nil, fmt.Errorf("decode facts snapshot: %w", err)
	}
	if view.SitePages == nil {
		view.SitePages = map[string]domain.SitePageFact{}
	}
	return version, &view, nil
}

func mustJSONBytes(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
