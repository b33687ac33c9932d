package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/response"
)

// ProfileHandler serves the signed-in user's account and financial profile.
type ProfileHandler struct {
	users     *services.UserService
	documents *services.DocumentService
	advisor   *services.AdvisorService
	sessions  *iauth.SessionService
}

func NewProfileHandler(users *services.UserService, documents *services.DocumentService, advisor *services.AdvisorService, sessions *iauth.SessionService) *ProfileHandler {
	return &ProfileHandler{users: users, documents: documents, advisor: advisor, sessions: sessions}
}

type updateProfileRequest struct {
	Name              *string        `json:"name" validate:"omitempty,max=120"`
	PhotoURL          *string        `json:"photo_url" validate:"omitempty,url"`
	Preferences       map[string]any `json:"preferences"`
	Responses         map[string]any `json:"responses"`
	MonthlyInvestable *string        `json:"monthly_investable"`
	Currency          *string        `json:"currency" validate:"omitempty,len=3"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		Name:              req.Name,
		PhotoURL:          req.PhotoURL,
		Preferences:       req.Preferences,
		Responses:         req.Responses,
		MonthlyInvestable: req.MonthlyInvestable,
		Currency:          req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/profile
func (h *ProfileHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ctx := requestContext(c)

	if h.sessions != nil {
		if err := h.sessions.RevokeUserSessions(ctx, userID); err != nil {
			logger.WithUser("profile", userID).Warn("revoke sessions before delete failed", zap.Error(err))
		}
	}

	// Files are listed through the document rows, so they go before the account.
	purged := 0
	if h.documents != nil {
		purged = h.documents.PurgeUser(ctx, userID)
	}

	if err := h.users.DeleteProfile(ctx, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true, "documents_removed": purged})
}

// GET /api/profile/completeness
func (h *ProfileHandler) Completeness(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.advisor.Completeness(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
