package app

import (
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/handlers"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/middleware"
)

type Handlers struct {
	Chat       *handlers.ChatHandler
	AdminParks *handlers.AdminParksHandler
	AdminFacts *handlers.AdminFactsHandler
	AdminKB    *handlers.AdminKBHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Chat:       handlers.NewChatHandler(serviceset.Chat),
		AdminParks: handlers.NewAdminParksHandler(reposet.Park, reposet.Lead),
		AdminFacts: handlers.NewAdminFactsHandler(db, reposet.Park, reposet.Facts, reposet.ChangeLog, serviceset.Governance),
		AdminKB:    handlers.NewAdminKBHandler(db, reposet.Park, reposet.KBSource, reposet.KBJob, reposet.KBIndex, reposet.ChangeLog, serviceset.Indexer),
	}
}

type Middleware struct {
	AdminAuth *middleware.AdminAuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		AdminAuth: middleware.NewAdminAuthMiddleware(log, cfg.AdminAPIKey),
	}
}
