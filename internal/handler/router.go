package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册全部业务路由
func RegisterRoutes(
	router *gin.Engine,
	urlHandler *ShortLinkHandler,
	authHandler *AuthHandler,
	authMiddleware, adminMiddleware gin.HandlerFunc,
) {
	router.GET("/health", urlHandler.HealthCheck)
	router.GET("/:code", urlHandler.RedirectToOriginal)

	oauth2 := router.Group("/oauth2")
	{
		oauth2.GET("/authorize/:provider", authHandler.Authorize)
		oauth2.GET("/callback/:provider", authHandler.Callback)
	}

	public := router.Group("/api/auth/public")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.GET("/oauth2/urls", authHandler.OAuth2URLs)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/auth/me", authHandler.GetCurrentUser)

		urls := api.Group("/urls")
		urls.POST("/shorten", urlHandler.CreateShortLink)
		urls.GET("/myurls", urlHandler.GetMyLinks)
		urls.GET("/analytics/:code", urlHandler.GetLinkAnalytics)
		urls.GET("/totalClicks", urlHandler.GetTotalClicks)
		urls.DELETE("/:id", urlHandler.DeleteLink)
	}

	admin := api.Group("/admin")
	admin.Use(adminMiddleware)
	{
		admin.GET("/stats", urlHandler.GetStats)
	}
}
