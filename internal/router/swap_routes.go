package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/config"
	"swap-backend/internal/middleware"
)

// SetupSwapRoutes mounts the claim, root and admin APIs under /api
func SetupSwapRoutes(r *gin.Engine, cfg *config.Config, h Handlers, logger *logrus.Logger) {
	localhostOnly := middleware.NewLocalhostOnly(logger, cfg.Admin.AllowedIPs)
	adminAuth := middleware.NewAdminAuthMiddleware(cfg.Admin.JWTSecret, logger)

	api := r.Group("/api")
	{
		// ============ Claims ============
		claims := api.Group("/claims")
		{
			claims.POST("", h.Claims.SubmitClaimHandler)
			claims.GET("/:address", h.Claims.GetClaimHandler)
			claims.GET("/:address/history", h.Claims.GetClaimHistoryHandler)
		}

		// ============ Minted balances ============
		api.GET("/accounts/:account/balance", h.Claims.GetAccountBalanceHandler)

		// ============ Trusted root ============
		api.GET("/root", h.Root.GetRootHandler)

		// ============ Admin (IP restricted) ============
		admin := api.Group("/admin")
		admin.Use(localhostOnly.Restrict())
		{
			admin.POST("/login", h.AdminAuth.AdminLoginHandler)
			admin.GET("/totp/setup", h.AdminAuth.GenerateTOTPSecretHandler)
			admin.POST("/root", adminAuth.ResolveOrigin(), h.Root.UpdateRootHandler)
		}
	}
}
