package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type fakeParkRepo struct {
	park *types.Park
}

func (f *fakeParkRepo) Create(_ context.Context, _ *gorm.DB, p *types.Park) (*types.Park, error) {
	return p, nil
}
func (f *fakeParkRepo) GetByID(context.Context, *gorm.DB, uuid.UUID) (*types.Park, error) {
	return f.park, nil
}
func (f *fakeParkRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*types.Park, error) {
	if f.park != nil && f.park.Slug == slug {
		return f.park, nil
	}
	return nil, nil
}
func (f *fakeParkRepo) List(context.Context, *gorm.DB) ([]*types.Park, error) { return nil, nil }
func (f *fakeParkRepo) SetActiveKBIndex(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) error {
	return nil
}

type fakeLeadRepo struct {
	open       *types.Lead
	created    []*types.Lead
	updates    []map[string]interface{}
	notifyHash []string
}

func (f *fakeLeadRepo) Create(_ context.Context, _ *gorm.DB, lead *types.Lead) (*types.Lead, error) {
	lead.ID = uuid.New()
	f.created = append(f.created, lead)
	f.open = lead
	return lead, nil
}
func (f *fakeLeadRepo) GetByID(context.Context, *gorm.DB, uuid.UUID) (*types.Lead, error) {
	return f.open, nil
}
func (f *fakeLeadRepo) GetOpenBySession(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*types.Lead, error) {
	return f.open, nil
}
func (f *fakeLeadRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	return nil
}
func (f *fakeLeadRepo) ListByPark(context.Context, *gorm.DB, uuid.UUID, string, int) ([]*types.Lead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) MarkAdminNotified(_ context.Context, _ *gorm.DB, _ uuid.UUID, hash string) (bool, error) {
	for _, h := range f.notifyHash {
		if h == hash {
			return false, nil
		}
	}
	f.notifyHash = append(f.notifyHash, hash)
	return true, nil
}

type fakeEventLog struct {
	events []*types.EventLog
}

func (f *fakeEventLog) Append(_ context.Context, _ *gorm.DB, entry *types.EventLog) error {
	f.events = append(f.events, entry)
	return nil
}
func (f *fakeEventLog) CountByName(context.Context, *gorm.DB, uuid.UUID, string) (int64, error) {
	return 0, nil
}

func (f *fakeEventLog) names() []string {
	var out []string
	for _, e := range f.events {
		out = append(out, e.EventName)
	}
	return out
}

type fakeGovernance struct {
	view        *domain.FactsView
	unpublished bool
}

func (f *fakeGovernance) BuildLiveView(context.Context, uuid.UUID) (*domain.FactsView, error) {
	return f.view, nil
}
func (f *fakeGovernance) Publish(context.Context, uuid.UUID, string, *string) (*types.FactsVersion, error) {
	return nil, nil
}
func (f *fakeGovernance) Rollback(context.Context, uuid.UUID, string) (*types.FactsVersion, error) {
	return nil, nil
}
func (f *fakeGovernance) ListVersions(context.Context, uuid.UUID, int) ([]*types.FactsVersion, error) {
	return nil, nil
}
func (f *fakeGovernance) PublishedView(context.Context, uuid.UUID) (*types.FactsVersion, *domain.FactsView, error) {
	if f.view == nil || f.unpublished {
		return nil, nil, nil
	}
	return &types.FactsVersion{ID: uuid.New()}, f.view, nil
}

type fakeRAG struct {
	chunks []domain.RetrievedChunk
}

func (f *fakeRAG) Retrieve(context.Context, *types.Park, string, int) ([]domain.RetrievedChunk, error) {
	return f.chunks, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string
	delivery chan string
}

func (f *fakeNotifier) NotifyLead(_ context.Context, _ string, _ uuid.UUID, message string) error {
	f.mu.Lock()
	f.sent = append(f.sent, message)
	f.mu.Unlock()
	if f.delivery != nil {
		f.delivery <- message
	}
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type chatFixture struct {
	svc      ChatService
	parks    *fakeParkRepo
	leads    *fakeLeadRepo
	events   *fakeEventLog
	gov      *fakeGovernance
	notifier *fakeNotifier
}

func newChatFixture(t *testing.T, cfg ChatConfig, view *domain.FactsView) *chatFixture {
	t.Helper()
	path := "/tickets"
	if view == nil {
		view = &domain.FactsView{
			Contacts: []domain.ContactFact{{Type: "phone", Value: "+7 (900) 111-22-33", IsPrimary: true}},
			SitePages: map[string]domain.SitePageFact{
				"prices_tickets": {Key: "prices_tickets", Path: &path},
			},
			PrimaryPhone: "+7 (900) 111-22-33",
		}
	}

	parks := &fakeParkRepo{park: &types.Park{
		ID:      uuid.New(),
		Slug:    "nn",
		Name:    "Джунгли Сити Нижний Новгород",
		BaseURL: "https://junglecity.ru",
	}}
	leads := &fakeLeadRepo{}
	events := &fakeEventLog{}
	gov := &fakeGovernance{view: view}
	notifier := &fakeNotifier{delivery: make(chan string, 4)}

	svc := NewChatService(
		testLog(t),
		cfg,
		parks,
		leads,
		events,
		gov,
		&fakeRAG{},
		&mockStylist{log: testLog(t)},
		notifier,
	)
	return &chatFixture{svc: svc, parks: parks, leads: leads, events: events, gov: gov, notifier: notifier}
}

func TestHandleMessageUnknownPark(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	_, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "msk",
		Channel:  "web",
		Message:  "привет",
	})
	if err == nil {
		t.Fatalf("expected error for unknown park")
	}
}

func TestHandleMessageFallsBackToLiveFacts(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	fx.gov.unpublished = true

	res, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "nn",
		Channel:  "web",
		Message:  "телефон?",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(res.Reply, "+7 (900) 111-22-33") {
		t.Fatalf("unpublished park must answer from live facts: %q", res.Reply)
	}
}

func TestHandleMessagePricesScenario(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	res, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "nn",
		Channel:  "web",
		Message:  "Сколько стоит билет?",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if strings.Contains(res.Reply, "₽") || strings.Contains(res.Reply, "руб") {
		t.Fatalf("price intent reply must carry no currency: %q", res.Reply)
	}
	link := "https://junglecity.ru/tickets"
	if strings.Count(res.Reply, link) != 1 {
		t.Fatalf("reply must contain the tickets link exactly once: %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "дат") && !strings.Contains(res.Reply, "день") {
		t.Fatalf("price reply must ask about the visit date: %q", res.Reply)
	}
	if len(fx.leads.created) != 0 {
		t.Fatalf("consult intent must not create a lead")
	}
}

func TestHandleMessagePartyCreatesLead(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	res, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "nn",
		Channel:  "web",
		Message:  "Хочу день рождения ребенку",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(fx.leads.created) != 1 {
		t.Fatalf("lead: want 1 created, got %d", len(fx.leads.created))
	}
	if !strings.Contains(res.Reply, "дат") && !strings.Contains(res.Reply, "день недели") {
		t.Fatalf("first party turn must ask for a date: %q", res.Reply)
	}
	if strings.Contains(res.Reply, "телефон") {
		t.Fatalf("first party turn must not ask for a phone: %q", res.Reply)
	}
}

func TestHandleMessageSessionContinuity(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	sessionID := uuid.New()

	_, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug:  "nn",
		Channel:   "web",
		SessionID: &sessionID,
		Message:   "Хочу день рождения ребенку",
	})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	res, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug:  "nn",
		Channel:   "web",
		SessionID: &sessionID,
		Message:   "Праздник 15.01, будет 8 детей, им по 6 лет",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if res.SessionID != sessionID {
		t.Fatalf("session: want=%s got=%s", sessionID, res.SessionID)
	}
	if len(fx.leads.created) != 1 {
		t.Fatalf("second turn must reuse the open lead, created=%d", len(fx.leads.created))
	}
	if !strings.Contains(res.Reply, "телефон") {
		t.Fatalf("with date known, reply must ask for a phone: %q", res.Reply)
	}
}

func TestHandleMessageHandoffNotifiesOnce(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	sessionID := uuid.New()
	msg := "День рождения 15.01, мой номер +7 900 123-45-67"

	for i := 0; i < 2; i++ {
		if _, err := fx.svc.HandleMessage(context.Background(), ChatInput{
			ParkSlug:  "nn",
			Channel:   "web",
			SessionID: &sessionID,
			Message:   msg,
		}); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	select {
	case <-fx.notifier.delivery:
	case <-time.After(2 * time.Second):
		t.Fatalf("admin notification was never dispatched")
	}
	sent := fx.notifier.messages()
	if len(sent) != 1 {
		t.Fatalf("identical handoff must notify once, got %d", len(sent))
	}
	if !strings.Contains(sent[0], "Тел: +7*******67") {
		t.Fatalf("admin message must carry a masked phone: %q", sent[0])
	}
}

func TestHandleMessageEventTrail(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	_, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "nn",
		Channel:  "web",
		Message:  "Сколько стоит билет?",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	names := fx.events.names()
	for _, want := range []string{"message_received", "intent_routed", "facts_used", "answer_composed"} {
		found := false
		for _, got := range names {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("event %q missing from trail %v", want, names)
		}
	}
}

func TestHandleMessagePhoneMaskedInEvents(t *testing.T) {
	fx := newChatFixture(t, ChatConfig{}, nil)
	_, err := fx.svc.HandleMessage(context.Background(), ChatInput{
		ParkSlug: "nn",
		Channel:  "web",
		Message:  "Позовите менеджера: +7 900 123-45-67",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	for _, e := range fx.events.events {
		if strings.Contains(string(e.Payload), "123-45-67") {
			t.Fatalf("raw phone leaked into event %s: %s", e.EventName, string(e.Payload))
		}
	}
}
