package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
)

// Dependencies bundles what the router mounts. Webhook is nil when WhatsApp is not configured.
type Dependencies struct {
	Auth        handlers.Authenticator
	AuthHandler *handlers.AuthHandler
	Inventory   *handlers.InventoryHandler
	Reports     *handlers.ReportHandler
	Webhook     *handlers.WebhookHandler
	Metrics     *metrics.Metrics
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(deps.Metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	requireAuth := handlers.RequireAuth(deps.Auth, logger)
	requireAdmin := handlers.RequireAdmin()

	api := r.Group("/api")
	api.POST("/auth/login", deps.AuthHandler.Login)

	authed := api.Group("", requireAuth)
	authed.POST("/auth/logout", deps.AuthHandler.Logout)
	authed.GET("/auth/me", deps.AuthHandler.Me)

	items := authed.Group("/items")
	items.GET("", deps.Inventory.List)
	items.GET("/grouped", deps.Inventory.Grouped)
	items.GET("/low-stock", deps.Inventory.LowStock)
	items.GET("/options", deps.Inventory.Options)
	items.GET("/stream", deps.Inventory.Stream)
	items.GET("/:id", deps.Inventory.Get)
	items.PATCH("/:id", deps.Inventory.Update)
	items.POST("", requireAdmin, deps.Inventory.Create)
	items.DELETE("", requireAdmin, deps.Inventory.DeleteByField)
	items.DELETE("/:id", requireAdmin, deps.Inventory.Delete)

	authed.GET("/reports/latest", requireAdmin, deps.Reports.Latest)

	if deps.Webhook != nil {
		r.GET("/webhook", deps.Webhook.Verify)
		r.POST("/webhook", deps.Webhook.Receive)
		r.POST("/send-message", requireAuth, requireAdmin, deps.Webhook.SendMessage)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("whatsapp", deps.Webhook != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
