package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler) {
	profile := api.Group("/profile")
	{
		profile.GET("", handler.Get)
		profile.PUT("", handler.Update)
		profile.DELETE("", handler.Delete)
		profile.GET("/completeness", handler.Completeness)
	}
}
