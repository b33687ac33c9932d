package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/response"
)

const (
	defaultNewsQuery = "stock market"
	maxListLimit     = 50
)

// MarketHandler serves quotes, funds, news and web search.
type MarketHandler struct {
	market *services.MarketService
}

func NewMarketHandler(market *services.MarketService) *MarketHandler {
	return &MarketHandler{market: market}
}

// GET /api/market/stocks/:symbol
func (h *MarketHandler) Stock(c *gin.Context) {
	quote, cached, err := h.market.StockQuote(requestContext(c), c.Param("symbol"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, quote, &response.Meta{Cached: cached})
}

// GET /api/market/overview
func (h *MarketHandler) Overview(c *gin.Context) {
	overview, cached, err := h.market.Overview(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, overview, &response.Meta{Cached: cached})
}

// GET /api/market/news?q=&limit=
func (h *MarketHandler) News(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		query = defaultNewsQuery
	}

	articles, cached, err := h.market.News(requestContext(c), query, listLimit(c, 5))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, articles, &response.Meta{Cached: cached})
}

// GET /api/market/mutual-funds?q=&limit=
func (h *MarketHandler) MutualFunds(c *gin.Context) {
	funds, cached, err := h.market.MutualFunds(requestContext(c), strings.TrimSpace(c.Query("q")), listLimit(c, 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, funds, &response.Meta{Cached: cached})
}

// GET /api/market/mutual-funds/:code
func (h *MarketHandler) FundNAV(c *gin.Context) {
	code, err := strconv.Atoi(strings.TrimSpace(c.Param("code")))
	if err != nil {
		response.Error(c, errors.NewBadRequest("scheme code must be numeric"))
		return
	}

	nav, err := h.market.FundNAV(requestContext(c), code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, nav)
}

// GET /api/market/search?q=&limit=
func (h *MarketHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, errors.NewBadRequest("q is required"))
		return
	}

	results, cached, err := h.market.Search(requestContext(c), query, listLimit(c, 5))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, results, &response.Meta{Cached: cached})
}

func listLimit(c *gin.Context, fallback int) int {
	limit := queryInt(c, "limit", fallback)
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
