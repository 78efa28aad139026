package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/logger"
)

const (
	StyleProviderMock   = "mock"
	StyleProviderOpenAI = "openai"

	defaultStyleModel = "gpt-4o-mini"
	openAIResponses   = "https://api.openai.com/v1/responses"
)

// StyleResult is one rendered reply plus provenance for event logging.
type StyleResult struct {
	Text      string
	Provider  string
	Model     string
	LatencyMS int64
}

// StylistService rewrites a deterministic plan into the assistant voice.
// It is a stylist, not a planner: it receives the finished plan and the
// voice rules, never the raw facts, and its output still passes through
// the guardrails. Callers treat errors as "keep the deterministic text".
type StylistService interface {
	Render(ctx context.Context, plan domain.AnswerPlan, channel, voice string) (*StyleResult, error)
}

// StylistConfig selects the rendering provider. Resolved once at boot.
type StylistConfig struct {
	Provider  string
	APIKey    string
	Model     string
	PromptDir string
}

// NewStylistService fails fast on an unknown provider, so a typo in
// deployment config is caught at boot rather than on the first chat
// message.
func NewStylistService(log *logger.Logger, cfg StylistConfig) (StylistService, error) {
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = StyleProviderMock
	}

	switch provider {
	case StyleProviderMock:
		return &mockStylist{log: log.With("service", "StylistService", "provider", provider)}, nil
	case StyleProviderOpenAI:
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for LLM_PROVIDER=openai")
		}
		model := strings.TrimSpace(cfg.Model)
		if model == "" {
			model = defaultStyleModel
		}
		promptDir := strings.TrimSpace(cfg.PromptDir)
		if promptDir == "" {
			promptDir = "prompts"
		}
		return &openAIStylist{
			log:       log.With("service", "StylistService", "provider", provider),
			apiKey:    apiKey,
			model:     model,
			promptDir: promptDir,
			http:      &http.Client{Timeout: 20 * time.Second},
		}, nil
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER=%q", provider)
}

// mockStylist renders the plan verbatim with a small channel-dependent
// intro. It keeps development and tests independent of any LLM vendor.
type mockStylist struct {
	log *logger.Logger
}

func (s *mockStylist) Render(_ context.Context, plan domain.AnswerPlan, channel, _ string) (*StyleResult, error) {
	start := time.Now()

	intro := ""
	if plan.Intent == domain.IntentStart {
		intro = "Привет! "
	} else if channel == "telegram" {
		intro = "Поняла 🙂 "
	}

	body := plan.Render()
	if body == "" {
		body = "Подскажите, пожалуйста, что именно интересует?"
	}

	return &StyleResult{
		Text:      strings.TrimSpace(intro + body),
		Provider:  StyleProviderMock,
		Model:     StyleProviderMock,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

type openAIStylist struct {
	log       *logger.Logger
	apiKey    string
	model     string
	promptDir string
	http      *http.Client
}

func (s *openAIStylist) Render(ctx context.Context, plan domain.AnswerPlan, _, voice string) (*StyleResult, error) {
	start := time.Now()

	planJSON, err := json.Marshal(stylistPlanPayload(plan))
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	payload := map[string]any{
		"model": s.model,
		"input": []map[string]string{
			{"role": "system", "content": loadVoicePrompt(s.promptDir, voice)},
			{"role": "user", "content": "Сформируй финальный текст ответа по plan (строго по правилам).\n\nplan:\n" + string(planJSON)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIResponses, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		Output []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}

	var text strings.Builder
	for _, item := range decoded.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				text.WriteString(c.Text)
			}
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("openai response had no text")
	}

	return &StyleResult{
		Text:      strings.TrimSpace(text.String()),
		Provider:  StyleProviderOpenAI,
		Model:     s.model,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

// stylistPlanPayload is the only view of the plan the LLM ever sees.
func stylistPlanPayload(plan domain.AnswerPlan) map[string]any {
	return map[string]any{
		"intent":        plan.Intent,
		"answer_points": plan.AnswerPoints,
		"questions":     plan.Questions,
		"link":          plan.Link,
		"constraints": map[string]any{
			"max_links":     plan.Constraints.MaxLinks,
			"max_questions": plan.Constraints.MaxQuestions,
			"no_prices":     plan.Constraints.NoPrices,
		},
	}
}

func loadVoicePrompt(dir, voice string) string {
	raw, err := os.ReadFile(filepath.Join(dir, voice+".md"))
	if err != nil {
		return ""
	}
	return string(raw)
}
