package app

import (
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/kb"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/platform/qdrant"
	"github.com/jucity/ai-manager-backend/internal/services"
)

type Services struct {
	Embedder   services.EmbedderService
	RAG        services.RAGService
	Governance services.FactsGovernanceService
	Indexer    services.KBIndexerService
	Stylist    services.StylistService
	Notifier   services.AdminNotifier
	Chat       services.ChatService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	embedder, err := services.NewEmbedderService(log, services.EmbedderConfig{
		Provider: cfg.EmbedProvider,
		Dim:      cfg.EmbedDim,
	})
	if err != nil {
		return Services{}, err
	}

	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Services{}, err
	}
	store, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		return Services{}, err
	}

	fetcher := kb.NewFetcher(log)
	rag := services.NewRAGService(log, store, embedder)
	governance := services.NewFactsGovernanceService(log, db, reposet.Facts, reposet.FactsVersion, reposet.ChangeLog)
	indexer := services.NewKBIndexerService(log, db, reposet.Park, reposet.KBSource, reposet.KBJob, reposet.KBIndex, fetcher, embedder, store)

	stylist, err := services.NewStylistService(log, services.StylistConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		PromptDir: cfg.VoicePromptDir,
	})
	if err != nil {
		return Services{}, err
	}
	notifier := services.NewAdminNotifier(log, services.NotifierConfig{
		BotToken: cfg.TelegramBotToken,
		ChatIDs:  cfg.TelegramAdminChatID,
	})

	chat := services.NewChatService(
		log,
		services.ChatConfig{
			RAGEnabled: cfg.RAGEnabled,
			LLMEnabled: cfg.LLMEnabled,
			BrandVoice: cfg.BrandVoice,
		},
		reposet.Park,
		reposet.Lead,
		reposet.EventLog,
		governance,
		rag,
		stylist,
		notifier,
	)

	return Services{
		Embedder:   embedder,
		RAG:        rag,
		Governance: governance,
		Indexer:    indexer,
		Stylist:    stylist,
		Notifier:   notifier,
		Chat:       chat,
	}, nil
}
