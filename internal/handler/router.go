package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/handler/middleware"
	jwtpkg "linkbook/invitehub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	inviteHandler *InviteHandler,
	subscriptionHandler *SubscriptionHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Invite façade: POST /invite?action=validate|redeem. Every method is
	// routed so the handler can answer 405 itself.
	r.Any("/invite", inviteHandler.Handle)

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/subscriptions", subscriptionHandler.Provision)
		protected.GET("/subscriptions/me", subscriptionHandler.Me)
	}

	// Admin routes (JWT + admin check)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
	{
		admin.GET("/invite-codes", adminHandler.ListInviteCodes)
		admin.POST("/invite-codes/reindex", adminHandler.RebuildIndex)
	}

	return r
}
