package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/response"
)

// RecommendationHandler serves risk assessment, portfolio and SWOT generation.
type RecommendationHandler struct {
	advisor *services.AdvisorService
}

func NewRecommendationHandler(advisor *services.AdvisorService) *RecommendationHandler {
	return &RecommendationHandler{advisor: advisor}
}

// profileRequest accepts either {"responses": {...}, "documents": [...]} or the bare
// questionnaire object older clients post.
type profileRequest map[string]any

func (p profileRequest) responses() map[string]any {
	if nested, ok := p["responses"].(map[string]any); ok {
		return nested
	}
	bare := make(map[string]any, len(p))
	for key, value := range p {
		if key == "documents" || key == "responses" {
			continue
		}
		bare[key] = value
	}
	return bare
}

func (p profileRequest) documents() []string {
	raw, _ := p["documents"].([]any)
	docs := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			docs = append(docs, s)
		}
	}
	return docs
}

type swotRequest struct {
	Portfolio any `json:"portfolio"`
}

// POST /api/recommendations/risk-assessment
func (h *RecommendationHandler) RiskAssessment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profileRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, fallback, err := h.advisor.RiskAssessment(requestContext(c), userID, req.responses())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Fallback: fallback})
}

// POST /api/recommendations/portfolio
func (h *RecommendationHandler) Portfolio(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profileRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, fallback, err := h.advisor.GeneratePortfolio(requestContext(c), userID, services.PortfolioInput{
		Responses: req.responses(),
		Documents: req.documents(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Fallback: fallback})
}

// POST /api/recommendations/swot
func (h *RecommendationHandler) SWOT(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req swotRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, fallback, err := h.advisor.SWOT(requestContext(c), userID, req.Portfolio)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Fallback: fallback})
}

// GET /api/recommendations?kind=&limit=
func (h *RecommendationHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.advisor.History(requestContext(c), userID, strings.TrimSpace(c.Query("kind")), listLimit(c, 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, nil)
}
