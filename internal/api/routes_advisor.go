package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/handlers"
)

func registerRecommendationRoutes(api *gin.RouterGroup, handler *handlers.RecommendationHandler) {
	api.GET("/recommendations", handler.History)

	recs := api.Group("/recommendations")
	{
		recs.POST("/portfolio", handler.Portfolio)
		recs.POST("/risk-assessment", handler.RiskAssessment)
		recs.POST("/swot", handler.SWOT)
	}
}

func registerChatRoutes(api *gin.RouterGroup, handler *handlers.ChatHandler) {
	chat := api.Group("/chat")
	{
		chat.POST("/gemini-analysis", handler.GeminiAnalysis)
		chat.POST("/profiling", handler.Profiling)
		chat.POST("/message", handler.Message)
	}
}
