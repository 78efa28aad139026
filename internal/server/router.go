package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/handlers"
	"github.com/jucity/ai-manager-backend/internal/middleware"
)

type RouterConfig struct {
	ChatHandler       *handlers.ChatHandler
	AdminParksHandler *handlers.AdminParksHandler
	AdminFactsHandler *handlers.AdminFactsHandler
	AdminKBHandler    *handlers.AdminKBHandler
	AdminAuth         *middleware.AdminAuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(500, gin.H{"error": "service temporarily unavailable"})
	}))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"https://junglecity.ru",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Admin-Api-Key", "X-Admin-Actor", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/v1/health", handlers.HealthCheck)
	chat := router.Group("/v1/chat")
	{
		chat.POST("/message", cfg.ChatHandler.PostMessage)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/v1/admin")
	admin.Use(cfg.AdminAuth.RequireAdminKey())
	// Parks
	admin.POST("/parks", cfg.AdminParksHandler.CreatePark)
	admin.GET("/parks", cfg.AdminParksHandler.ListParks)
	admin.GET("/parks/:slug/leads", cfg.AdminParksHandler.ListLeads)
	// Facts
	admin.GET("/parks/:slug/facts", cfg.AdminFactsHandler.GetFacts)
	admin.PUT("/parks/:slug/contacts", cfg.AdminFactsHandler.PutContacts)
	admin.PUT("/parks/:slug/location", cfg.AdminFactsHandler.PutLocation)
	admin.PUT("/parks/:slug/opening-hours", cfg.AdminFactsHandler.PutOpeningHours)
	admin.PUT("/parks/:slug/transport", cfg.AdminFactsHandler.PutTransport)
	admin.PUT("/parks/:slug/site-pages", cfg.AdminFactsHandler.PutSitePages)
	admin.PUT("/parks/:slug/legal-documents", cfg.AdminFactsHandler.PutLegalDocuments)
	admin.PUT("/parks/:slug/promotions", cfg.AdminFactsHandler.PutPromotions)
	admin.PUT("/parks/:slug/faq", cfg.AdminFactsHandler.PutFAQ)
	// Governance
	admin.POST("/parks/:slug/publish", cfg.AdminFactsHandler.Publish)
	admin.POST("/parks/:slug/rollback", cfg.AdminFactsHandler.Rollback)
	admin.GET("/parks/:slug/versions", cfg.AdminFactsHandler.ListVersions)
	// Knowledge base
	admin.GET("/parks/:slug/kb/sources", cfg.AdminKBHandler.ListSources)
	admin.POST("/parks/:slug/kb/sources", cfg.AdminKBHandler.CreateSource)
	admin.PATCH("/parks/:slug/kb/sources/:id", cfg.AdminKBHandler.PatchSource)
	admin.POST("/parks/:slug/kb/reindex", cfg.AdminKBHandler.Reindex)
	admin.GET("/parks/:slug/kb/jobs", cfg.AdminKBHandler.ListJobs)
	admin.POST("/parks/:slug/kb/index/activate", cfg.AdminKBHandler.ActivateIndex)

	return router
}
