package app

import (
	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/server"
)

func wireRouter(handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ChatHandler:       handlerset.Chat,
		AdminParksHandler: handlerset.AdminParks,
		AdminFactsHandler: handlerset.AdminFacts,
		AdminKBHandler:    handlerset.AdminKB,
		AdminAuth:         mw.AdminAuth,
	})
}
