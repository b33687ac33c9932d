package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/handlers"
)

func registerDocumentRoutes(api *gin.RouterGroup, handler *handlers.DocumentHandler) {
	docs := api.Group("/documents")
	{
		docs.POST("", handler.Upload)
		docs.GET("", handler.List)
		docs.GET("/statistics", handler.Statistics)
		docs.GET("/:id", handler.Get)
		docs.GET("/:id/file", handler.File)
		docs.DELETE("/:id", handler.Delete)
		docs.POST("/:id/analyze", handler.Analyze)
		docs.GET("/:id/analyses", handler.ListAnalyses)
		docs.POST("/:id/analyses", handler.SaveAnalysis)
	}
}
