package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/types"
)

const (
	conversationTurnCap = 50
	notifyTimeout       = 30 * time.Second
)

// ChatConfig carries the feature switches the orchestrator consults per
// turn. It is resolved once at boot.
type ChatConfig struct {
	RAGEnabled bool
	LLMEnabled bool
	BrandVoice string
}

type ChatInput struct {
	ParkSlug  string
	Channel   string
	UserID    *string
	SessionID *uuid.UUID
	Message   string
}

type ChatResult struct {
	Reply     string
	SessionID uuid.UUID
	TraceID   uuid.UUID
}

// ChatService runs one full conversational turn: route, extract, lead
// upkeep, retrieval, compose, style, guard. Every stage emits an event
// row; every stage after routing degrades instead of failing the turn.
type ChatService interface {
	HandleMessage(ctx context.Context, in ChatInput) (*ChatResult, error)
}

type chatService struct {
	log        *logger.Logger
	cfg        ChatConfig
	parks      repos.ParkRepo
	leads      repos.LeadRepo
	events     repos.EventLogRepo
	governance FactsGovernanceService
	rag        RAGService
	stylist    StylistService
	notifier   AdminNotifier
}

func NewChatService(
	log *logger.Logger,
	cfg ChatConfig,
	parks repos.ParkRepo,
	leads repos.LeadRepo,
	events repos.EventLogRepo,
	governance FactsGovernanceService,
	rag RAGService,
	stylist StylistService,
	notifier AdminNotifier,
) ChatService {
	return &chatService{
		log:        log.With("service", "ChatService"),
		cfg:        cfg,
		parks:      parks,
		leads:      leads,
		events:     events,
		governance: governance,
		rag:        rag,
		stylist:    stylist,
		notifier:   notifier,
	}
}

// turnContext is the per-turn identity stamped on every event row.
type turnContext struct {
	traceID        uuid.UUID
	sessionID      uuid.UUID
	parkID         uuid.UUID
	parkSlug       string
	channel        string
	userID         *string
	factsVersionID *uuid.UUID
}

func (s *chatService) HandleMessage(ctx context.Context, in ChatInput) (*ChatResult, error) {
	traceID := uuid.New()
	sessionID := uuid.New()
	if in.SessionID != nil && *in.SessionID != uuid.Nil {
		sessionID = *in.SessionID
	}

	park, err := s.parks.GetBySlug(ctx, nil, in.ParkSlug)
	if err != nil {
		return nil, err
	}
	if park == nil {
		return nil, apierr.NotFound("unknown park_slug %q", in.ParkSlug)
	}

	version, facts, err := s.governance.PublishedView(ctx, park.ID)
	if err != nil {
		return nil, err
	}
	if facts == nil {
		facts, err = s.governance.BuildLiveView(ctx, park.ID)
		if err != nil {
			return nil, err
		}
	}

	tc := turnContext{
		traceID:   traceID,
		sessionID: sessionID,
		parkID:    park.ID,
		parkSlug:  park.Slug,
		channel:   in.Channel,
		userID:    in.UserID,
	}
	if version != nil {
		tc.factsVersionID = &version.ID
	}

	maskedMessage := domain.MaskPhones(in.Message)
	s.emit(ctx, tc, "message_received", map[string]any{"message": maskedMessage})

	route := domain.Route(in.Message)
	s.emit(ctx, tc, "intent_routed", map[string]any{
		"intent":         route.Intent,
		"mode":           route.Mode,
		"confidence":     route.Confidence,
		"link_intent":    route.LinkIntent,
		"required_slots": route.RequiredSlots,
	})

	factsLink := ""
	if route.LinkIntent != "" {
		if page, ok := facts.SitePages[route.LinkIntent]; ok {
			factsLink = domain.PageURL(park.BaseURL, page.AbsoluteURL, page.Path)
		}
	}

	var leadState *domain.SlotsState
	var missingSlots []string
	handoffCreated := false

	if route.Mode == domain.ModeLead || route.Mode == domain.ModeHandoff {
		state, missing, handoff := s.updateLead(ctx, tc, route, in.Message, maskedMessage)
		leadState = state
		missingSlots = missing
		handoffCreated = handoff
	}

	var ragChunks []domain.RetrievedChunk
	ragUsed := false
	if s.cfg.RAGEnabled && domain.IsRetrievalIntent(route.Intent) {
		ragChunks, ragUsed = s.retrieve(ctx, tc, park, in.Message, maskedMessage)
	}

	link := factsLink
	if len(ragChunks) > 0 && ragChunks[0].SourceURL != "" {
		link = ragChunks[0].SourceURL
	}

	s.emit(ctx, tc, "facts_used", map[string]any{"keys": domain.FactsKeysUsed(route.Intent)})

	plan := domain.BuildPlan(domain.ComposeInput{
		Intent:         route.Intent,
		Facts:          *facts,
		Link:           link,
		UserMessage:    maskedMessage,
		Lead:           leadState,
		MissingSlots:   missingSlots,
		HandoffCreated: handoffCreated,
		RAGChunks:      ragChunks,
	})
	draft := plan.Render()

	final := draft
	llmUsed := false
	if s.cfg.LLMEnabled {
		rendered, err := s.stylist.Render(ctx, plan, in.Channel, s.cfg.BrandVoice)
		if err != nil {
			s.emit(ctx, tc, "llm_failed", map[string]any{"error": err.Error()})
		} else {
			llmUsed = true
			final = rendered.Text
			s.emit(ctx, tc, "llm_rendered", map[string]any{
				"provider":   rendered.Provider,
				"model":      rendered.Model,
				"latency_ms": rendered.LatencyMS,
			})
		}
	}

	guard := domain.ApplyGuardrails(final, route.Intent, link, ragUsed)
	if guard.ConflictDetected {
		s.emit(ctx, tc, "rag_conflict_detected", map[string]any{
			"rag_used":             ragUsed,
			"safety_guard_applied": guard.GuardApplied,
		})
	}

	questions := plan.Questions
	if len(questions) > 2 {
		questions = questions[:2]
	}
	s.emit(ctx, tc, "answer_composed", map[string]any{
		"reply_length":         len([]rune(guard.Text)),
		"questions":            questions,
		"link":                 link,
		"missing_slots":        missingSlots,
		"rag_used":             ragUsed,
		"safety_guard_applied": guard.GuardApplied,
		"llm_used":             llmUsed,
	})

	return &ChatResult{
		Reply:     guard.Text,
		SessionID: sessionID,
		TraceID:   traceID,
	}, nil
}

// updateLead extracts slots from the message, merges them first-seen-wins
// into the session's open lead, and fires the admin handoff when the
// lead became actionable. Lead persistence failures degrade to a
// stateless answer rather than failing the turn.
func (s *chatService) updateLead(
	ctx context.Context,
	tc turnContext,
	route domain.RouteResult,
	message, maskedMessage string,
) (*domain.SlotsState, []string, bool) {
	partyContext := route.Intent == domain.IntentPartyMain ||
		route.Intent == domain.IntentGraduation ||
		route.Intent == domain.IntentNewYearTrees
	patch := domain.ExtractSlots(message, partyContext)

	s.emit(ctx, tc, "slots_extracted", map[string]any{
		"pii_masking_applied": true,
		"slots_extracted":     maskedPatchPayload(patch),
	})

	lead, err := s.leads.GetOpenBySession(ctx, nil, tc.parkID, tc.sessionID)
	if err != nil {
		s.log.Error("load open lead", "session_id", tc.sessionID, "error", err)
		state := patch.Applied(domain.SlotsState{})
		return &state, domain.ComputeMissingSlots(route.Intent, route.RequiredSlots, state), false
	}

	existing := slotsStateFromLead(lead)
	merged := domain.MergeSlots(existing, patch)
	state := merged.Applied(existing)
	missing := domain.ComputeMissingSlots(route.Intent, route.RequiredSlots, state)

	adminMessage := ""
	handoff := false
	if domain.ShouldCreateHandoff(route.Intent, state) {
		adminMessage = domain.BuildAdminMessage(route.Intent, tc.parkSlug, state, message)
		handoff = true
	}

	if lead == nil {
		intent := route.Intent
		lead, err = s.leads.Create(ctx, nil, &types.Lead{
			ParkID:           tc.parkID,
			SessionID:        tc.sessionID,
			Status:           types.LeadOpen,
			Intent:           &intent,
			ConversationJSON: datatypes.JSON([]byte("[]")),
		})
		if err != nil {
			s.log.Error("create lead", "session_id", tc.sessionID, "error", err)
			return &state, missing, false
		}
	}

	updates := leadUpdates(lead, route.Intent, merged, missing, adminMessage)
	updates["conversation_json"] = appendTurn(lead.ConversationJSON, types.ConversationTurn{
		Role: "user",
		Text: maskedMessage,
	})
	if err := s.leads.UpdateFields(ctx, nil, lead.ID, updates); err != nil {
		s.log.Error("update lead", "lead_id", lead.ID, "error", err)
		return &state, missing, false
	}

	s.emit(ctx, tc, "lead_updated", map[string]any{
		"lead_id":             lead.ID.String(),
		"missing_slots":       missing,
		"pii_masking_applied": true,
	})

	if handoff && adminMessage != "" {
		s.emit(ctx, tc, "handoff_created", map[string]any{
			"lead_id":               lead.ID.String(),
			"admin_message_preview": preview(domain.MaskPhones(adminMessage), 200),
			"pii_masking_applied":   true,
		})

		shouldSend, err := s.leads.MarkAdminNotified(ctx, nil, lead.ID, hashAdminMessage(adminMessage))
		if err != nil {
			s.log.Error("mark admin notified", "lead_id", lead.ID, "error", err)
		} else if shouldSend {
			// The reply must not wait on the notification provider.
			leadID := lead.ID
			go func() {
				nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
				defer cancel()
				if err := s.notifier.NotifyLead(nctx, tc.parkSlug, leadID, adminMessage); err != nil {
					s.log.Warn("admin notification failed", "lead_id", leadID, "error", err)
				}
			}()
		}
	}

	return &state, missing, handoff
}

func (s *chatService) retrieve(
	ctx context.Context,
	tc turnContext,
	park *types.Park,
	message, maskedMessage string,
) ([]domain.RetrievedChunk, bool) {
	start := time.Now()
	chunks, err := s.rag.Retrieve(ctx, park, message, defaultRetrieveTopK)
	if err != nil {
		s.emit(ctx, tc, "rag_retrieved", map[string]any{
			"query": maskedMessage,
			"top_k": defaultRetrieveTopK,
			"error": err.Error(),
		})
		return nil, false
	}

	results := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, map[string]any{
			"score":      c.Score,
			"chunk_id":   c.ChunkID,
			"source_url": c.SourceURL,
		})
	}
	s.emit(ctx, tc, "rag_retrieved", map[string]any{
		"query":      maskedMessage,
		"top_k":      defaultRetrieveTopK,
		"latency_ms": time.Since(start).Milliseconds(),
		"results":    results,
	})
	return chunks, len(chunks) > 0
}

// emit writes one event row. Event logging is diagnostics, not state:
// a failed insert is logged and the turn continues.
func (s *chatService) emit(ctx context.Context, tc turnContext, name string, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal event payload", "event_name", name, "error", err)
		raw = []byte("{}")
	}
	parkID := tc.parkID
	slug := tc.parkSlug
	entry := &types.EventLog{
		TraceID:        tc.traceID,
		SessionID:      tc.sessionID,
		UserID:         tc.userID,
		ParkID:         &parkID,
		ParkSlug:       &slug,
		EventName:      name,
		FactsVersionID: tc.factsVersionID,
		Payload:        datatypes.JSON(raw),
	}
	if tc.channel != "" {
		channel := tc.channel
		entry.Channel = &channel
	}
	if err := s.events.Append(ctx, nil, entry); err != nil {
		s.log.Error("append event", "event_name", name, "error", err)
	}
}

func slotsStateFromLead(lead *types.Lead) domain.SlotsState {
	if lead == nil {
		return domain.SlotsState{}
	}
	return domain.SlotsState{
		ClientPhone: lead.ClientPhone,
		ClientName:  lead.ClientName,
		EventDate:   lead.EventDate,
		EventTime:   lead.EventTime,
		DayOfWeek:   lead.DayOfWeek,
		KidsCount:   lead.KidsCount,
		KidsAgeMain: lead.KidsAgeMain,
	}
}

func leadUpdates(lead *types.Lead, intent string, merged domain.SlotsPatch, missing []string, adminMessage string) map[string]interface{} {
	updates := map[string]interface{}{
		"missing_required_slots": datatypes.JSON(mustJSONBytes(missing)),
	}
	if lead.Intent == nil || *lead.Intent == "" {
		updates["intent"] = intent
	}
	if merged.ClientPhone != nil {
		updates["client_phone"] = *merged.ClientPhone
	}
	if merged.ClientName != nil {
		updates["client_name"] = *merged.ClientName
	}
	if merged.EventDate != nil {
		updates["event_date"] = *merged.EventDate
	}
	if merged.EventTime != nil {
		updates["event_time"] = *merged.EventTime
	}
	if merged.DayOfWeek != nil {
		updates["day_of_week"] = *merged.DayOfWeek
	}
	if merged.KidsCount != nil {
		updates["kids_count"] = *merged.KidsCount
	}
	if merged.KidsAgeMain != nil {
		updates["kids_age_main"] = *merged.KidsAgeMain
	}
	if adminMessage != "" {
		updates["admin_message"] = adminMessage
	}

	state := merged.Applied(slotsStateFromLead(lead))
	leadIntent := intent
	if lead.Intent != nil && *lead.Intent != "" {
		leadIntent = *lead.Intent
	}
	updates["conversation_summary"] = domain.BuildLeadSummary(leadIntent, state)
	return updates
}

func appendTurn(raw datatypes.JSON, turn types.ConversationTurn) datatypes.JSON {
	var turns []types.ConversationTurn
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &turns); err != nil {
			turns = nil
		}
	}
	turns = append(turns, turn)
	if len(turns) > conversationTurnCap {
		turns = turns[len(turns)-conversationTurnCap:]
	}
	return datatypes.JSON(mustJSONBytes(turns))
}

func maskedPatchPayload(patch domain.SlotsPatch) map[string]any {
	out := map[string]any{}
	if patch.ClientPhone != nil {
		out["client_phone"] = domain.MaskPhone(*patch.ClientPhone)
	}
	if patch.ClientName != nil {
		out["client_name"] = *patch.ClientName
	}
	if patch.EventDate != nil {
		out["event_date"] = patch.EventDate.Format("2006-01-02")
	}
	if patch.EventTime != nil {
		out["event_time"] = *patch.EventTime
	}
	if patch.DayOfWeek != nil {
		out["day_of_week"] = *patch.DayOfWeek
	}
	if patch.KidsCount != nil {
		out["kids_count"] = *patch.KidsCount
	}
	if patch.KidsAgeMain != nil {
		out["kids_age_main"] = *patch.KidsAgeMain
	}
	return out
}

func hashAdminMessage(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
