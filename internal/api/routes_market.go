package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/handlers"
)

func registerMarketRoutes(api *gin.RouterGroup, handler *handlers.MarketHandler) {
	market := api.Group("/market")
	{
		market.GET("/stocks/:symbol", handler.Stock)
		market.GET("/overview", handler.Overview)
		market.GET("/news", handler.News)
		market.GET("/mutual-funds", handler.MutualFunds)
		market.GET("/mutual-funds/:code", handler.FundNAV)
		market.GET("/search", handler.Search)
	}
}
