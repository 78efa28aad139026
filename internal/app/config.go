package app

import (
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/utils"
)

type Config struct {
	AdminAPIKey string
	RAGEnabled  bool
	LLMEnabled  bool
	BrandVoice  string
	Port        string

	EmbedProvider string
	EmbedDim      int

	LLMProvider    string
	LLMAPIKey      string
	LLMModel       string
	VoicePromptDir string

	TelegramBotToken    string
	TelegramAdminChatID string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		AdminAPIKey: utils.GetEnv("ADMIN_API_KEY", "", log),
		RAGEnabled:  utils.GetEnvAsBool("RAG_ENABLED", true, log),
		LLMEnabled:  utils.GetEnvAsBool("LLM_ENABLED", true, log),
		BrandVoice:  utils.GetEnv("BRAND_VOICE", "jucity", log),
		Port:        utils.GetEnv("PORT", "8080", log),

		EmbedProvider: utils.GetEnv("EMBED_PROVIDER", "", log),
		EmbedDim:      utils.GetEnvAsInt("EMBED_DIM", 0, log),

		LLMProvider:    utils.GetEnv("LLM_PROVIDER", "", log),
		LLMAPIKey:      utils.GetEnv("LLM_API_KEY", "", log),
		LLMModel:       utils.GetEnv("LLM_MODEL", "", log),
		VoicePromptDir: utils.GetEnv("VOICE_PROMPT_DIR", "prompts", log),

		TelegramBotToken:    utils.GetEnv("TELEGRAM_BOT_TOKEN", "", log),
		TelegramAdminChatID: utils.GetEnv("TELEGRAM_ADMIN_CHAT_IDS", "", log),
	}
}
