package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/handlers"
)

func registerAuthRoutes(public, protected *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/signup", handler.Signup)
		auth.POST("/login", handler.Login)
		auth.POST("/google", handler.Google)
		auth.GET("/google/url", handler.GoogleURL)
		auth.POST("/refresh", handler.Refresh)
	}

	protected.GET("/auth/session", handler.Session)
	protected.POST("/auth/logout", handler.Logout)
}
