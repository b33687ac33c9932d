package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/integrations/gemini"
	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/response"
)

// ChatHandler serves the conversational advisor and ad-hoc AI analyses.
type ChatHandler struct {
	advisor *services.AdvisorService
}

func NewChatHandler(advisor *services.AdvisorService) *ChatHandler {
	return &ChatHandler{advisor: advisor}
}

type chatRequest struct {
	Message string           `json:"message" validate:"required,max=4000"`
	History []gemini.Message `json:"history"`
}

// POST /api/chat/message
func (h *ChatHandler) Message(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req chatRequest
	if !bindAndValidate(c, &req) {
		return
	}

	reply, err := h.advisor.Chat(requestContext(c), userID, req.Message, req.History)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reply": reply})
}

// POST /api/chat/gemini-analysis
func (h *ChatHandler) GeminiAnalysis(c *gin.Context) {
	var data map[string]any
	if !bindOptionalJSON(c, &data) {
		return
	}

	result, fallback, err := h.advisor.Analyze(requestContext(c), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Fallback: fallback})
}

// POST /api/chat/profiling
func (h *ChatHandler) Profiling(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var data map[string]any
	if !bindOptionalJSON(c, &data) {
		return
	}

	result, fallback, err := h.advisor.ProfileInsights(requestContext(c), userID, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Fallback: fallback})
}
