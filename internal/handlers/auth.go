package handlers

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/middleware"
	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/response"
)

// AuthHandler manages sign-up, sign-in and session flows.
type AuthHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
}

func NewAuthHandler(users *services.UserService, sessions *iauth.SessionService) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleRequest struct {
	IDToken string `json:"id_token"`
	// LegacyIDToken accepts the camel-case field older web clients send.
	LegacyIDToken string `json:"idToken"`
	Code          string `json:"code"`
	State         string `json:"state"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type authPayload struct {
	Tokens iauth.TokenPair `json:"tokens"`
	User   *models.User    `json:"user"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Signup(requestContext(c), services.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.issue(c, http.StatusCreated, user, models.AuthProviderLocal)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.issue(c, http.StatusOK, user, models.AuthProviderLocal)
}

// POST /api/auth/google
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}

	user, err := h.users.LoginWithGoogle(requestContext(c), services.GoogleLoginInput{
		IDToken: firstNonBlank(req.IDToken, req.LegacyIDToken),
		Code:    req.Code,
		State:   req.State,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.issue(c, http.StatusOK, user, models.AuthProviderGoogle)
}

// GET /api/auth/google/url
func (h *AuthHandler) GoogleURL(c *gin.Context) {
	redirect, err := h.users.GoogleAuthURL(requestContext(c), c.Query("return_url"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, redirect)
}

// GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.Session(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.sessions.RefreshSession(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if !isSessionError(err) {
			logger.WithModule("auth").Warn("refresh session failed", zap.Error(err))
		}
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, pair)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := strings.TrimSpace(c.GetString(middleware.CtxSessionIDKey))
	if sessionID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	err := h.sessions.RevokeSession(requestContext(c), sessionID)
	if err != nil && !stdErrors.Is(err, iauth.ErrSessionNotFound) {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User, provider string) {
	pair, _, err := h.sessions.CreateSession(requestContext(c), user.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Provider:  provider,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, status, authPayload{Tokens: pair, User: user})
}

func isSessionError(err error) bool {
	return stdErrors.Is(err, iauth.ErrSessionNotFound) ||
		stdErrors.Is(err, iauth.ErrSessionExpired) ||
		stdErrors.Is(err, iauth.ErrSessionRevoked) ||
		stdErrors.Is(err, iauth.ErrSessionInvalidToken)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
