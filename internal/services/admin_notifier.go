package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

// AdminNotifier delivers complete-lead alerts to park managers. Delivery
// is best-effort: the chat turn already succeeded by the time this runs,
// and the notified-hash dedup in the lead repo decides whether to call
// it at all.
type AdminNotifier interface {
	NotifyLead(ctx context.Context, parkSlug string, leadID uuid.UUID, adminMessage string) error
}

// NotifierConfig carries the telegram credentials. ChatIDs is the raw
// comma-separated list as it arrives from deployment config.
type NotifierConfig struct {
	BotToken string
	ChatIDs  string
}

// NewAdminNotifier returns the telegram sender when both bot token and
// chat ids are configured, and a log-only sender otherwise.
func NewAdminNotifier(log *logger.Logger, cfg NotifierConfig) AdminNotifier {
	token := strings.TrimSpace(cfg.BotToken)
	chatIDs := parseAdminChatIDs(cfg.ChatIDs)
	if token == "" || len(chatIDs) == 0 {
		return &logNotifier{log: log.With("service", "AdminNotifier", "provider", "log")}
	}
	return &telegramNotifier{
		log:     log.With("service", "AdminNotifier", "provider", "telegram"),
		token:   token,
		chatIDs: chatIDs,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func parseAdminChatIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

type logNotifier struct {
	log *logger.Logger
}

func (n *logNotifier) NotifyLead(_ context.Context, parkSlug string, leadID uuid.UUID, adminMessage string) error {
	n.log.Info("admin notification",
		"park_slug", parkSlug,
		"lead_id", leadID,
		"message", adminMessage,
	)
	return nil
}

type telegramNotifier struct {
	log     *logger.Logger
	token   string
	chatIDs []int64
	http    *http.Client
}

func (n *telegramNotifier) NotifyLead(ctx context.Context, parkSlug string, leadID uuid.UUID, adminMessage string) error {
	text := fmt.Sprintf("🔥 Новая заявка!\nПарк: %s\nLead: %s\n\n%s", parkSlug, leadID, adminMessage)

	var lastErr error
	for _, chatID := range n.chatIDs {
		if err := n.sendMessage(ctx, chatID, text); err != nil {
			n.log.Warn("telegram send failed", "chat_id", chatID, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (n *telegramNotifier) sendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("call telegram: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return nil
}
