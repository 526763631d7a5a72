package routes

import (
	"context"
	"net/http"
	"time"

	"messaging_backend/internal/handlers"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/metrics"
	"messaging_backend/internal/middleware"
	"messaging_backend/ws"

	_ "messaging_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RegisterRoutes mounts every HTTP and WebSocket route.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	db *gorm.DB,
) {
	api := ginRouter.Group("/api")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)
		appHandlers.ConversationHandler.RegisterRoutes(api)
		appHandlers.MessageHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		// Same admin routes under /api/admin; the role authorizer guards both.
		appHandlers.AdminHandler.RegisterRoutes(api)
	}

	chats := ginRouter.Group("/chats")
	appHandlers.AdminHandler.RegisterRoutes(chats)

	ginRouter.GET("/ws/notifications", middleware.RequireAuth(), wsHandler.ServeWS)
	logger.Info("WebSocket route /ws/notifications registered")

	ginRouter.GET("/health", healthHandler(db))
	ginRouter.GET("/metrics", metrics.Handler())
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthHandler godoc
// @Summary      Liveness and database reachability
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
