package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/carbon-marketplace/internal/api/middleware"
	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// SetupRoutes configures all REST API routes. authLimit guards the credential endpoints.
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, authLimit gin.HandlerFunc) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", handler.GetStats)
		v1.POST("/contact", authLimit, handler.Contact)

		for _, kind := range []domain.AccountKind{domain.AccountFarmer, domain.AccountBusiness} {
			public := v1.Group("/"+string(kind), authLimit)
			public.POST("/register", handler.Register(kind))
			public.POST("/verify-email", handler.VerifyEmail(kind))
			public.POST("/resend-verification", handler.ResendVerification(kind))
			public.POST("/login", handler.Login(kind))
			public.POST("/verify-2fa", handler.VerifyTwoFactor(kind))
			public.POST("/google-login", handler.GoogleLogin(kind))
		}

		farmer := v1.Group("/farmer", middleware.Auth(authCfg, domain.RoleFarmer))
		{
			farmer.POST("/logout", handler.Logout)
			farmer.POST("/plantations", handler.CreatePlantation)
			farmer.GET("/plantations", handler.ListFarmerPlantations)
			farmer.POST("/plantations/:id/ndvi", handler.UpdateNDVI)
			farmer.GET("/credits", handler.GetFarmerCredits)
		}

		business := v1.Group("/business", middleware.Auth(authCfg, domain.RoleBusiness))
		{
			business.POST("/logout", handler.Logout)
			business.GET("/plantations", handler.ListMarketplace)
			business.POST("/buy", handler.Buy)
			business.GET("/purchases", handler.ListPurchases)
		}

		admin := v1.Group("/admin", middleware.Auth(authCfg, domain.RoleAdmin))
		{
			admin.POST("/plantations/:id/verification", handler.SetVerification)
			admin.GET("/farmers", handler.ListFarmers)
			admin.GET("/businesses", handler.ListBusinesses)
			admin.GET("/plantations", handler.ListPlantations)
			admin.GET("/purchases", handler.ListAllPurchases)
		}
	}
}
