package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/api"
	"github.com/fi-advisor/fi/internal/app"
	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/cache"
	sharedtestutil "github.com/fi-advisor/fi/internal/database/testutil"
	"github.com/fi-advisor/fi/internal/docstore"
	"github.com/fi-advisor/fi/internal/monitoring"
	"github.com/fi-advisor/fi/internal/monitoring/checks"
	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/internal/storage/blob"
	"github.com/fi-advisor/fi/pkg/response"
)

// Options lets a test plug fakes into the upstream edges of the services.
type Options struct {
	Quotes    services.QuoteSource
	Funds     services.FundSource
	News      services.NewsSource
	Search    services.WebSearcher
	Generator services.TextGenerator
	Chat      services.Conversationalist
	Completer services.JSONCompleter
	Analyzer  services.EntityAnalyzer
	// Inbound enables the per-client request limiter with the given budget.
	Inbound int
}

// Option mutates Options.
type Option func(*Options)

func WithMarket(quotes services.QuoteSource, funds services.FundSource, news services.NewsSource, search services.WebSearcher) Option {
	return func(o *Options) {
		o.Quotes, o.Funds, o.News, o.Search = quotes, funds, news, search
	}
}

func WithAI(generator services.TextGenerator, chat services.Conversationalist, completer services.JSONCompleter) Option {
	return func(o *Options) {
		o.Generator, o.Chat, o.Completer = generator, chat, completer
	}
}

func WithInboundLimit(requests int) Option {
	return func(o *Options) { o.Inbound = requests }
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	JWT        *iauth.JWTService
	Sessions   *iauth.SessionService
	Documents  *services.DocumentService
	Local      *docstore.Store
	Monitoring *monitoring.Module
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	db := sharedtestutil.NewDB(t)

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		Server: app.ServerConfig{MaxUploadMB: 1},
		RateLimit: app.RateLimitConfig{
			Inbound: app.InboundRateConfig{
				Enabled:  options.Inbound > 0,
				Requests: options.Inbound,
				Window:   time.Minute,
			},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{
				RefreshTTL:    24 * time.Hour,
				RefreshLength: 48,
			},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	store := cache.NewMemoryStore()
	sessionCfg := cfg.Auth.SessionServiceConfig()
	sessionCfg.Cache = iauth.NewSessionCache(store)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, sessionCfg)
	require.NoError(t, err)

	users, err := services.NewUserService(db, nil)
	require.NoError(t, err)

	local := docstore.New()
	documents, err := services.NewDocumentService(db, blob.NewMemory(), local, options.Analyzer,
		services.WithMaxUploadSize(int64(cfg.Server.MaxUploadMB)<<20))
	require.NoError(t, err)

	market := services.NewMarketService(services.MarketDeps{
		Quotes: options.Quotes,
		Funds:  options.Funds,
		News:   options.News,
		Search: options.Search,
	})

	advisor, err := services.NewAdvisorService(services.AdvisorDeps{
		DB:        db,
		Generator: options.Generator,
		Chat:      options.Chat,
		Completer: options.Completer,
		Users:     users,
		Documents: documents,
		Market:    market,
	})
	require.NoError(t, err)

	mon := monitoring.NewModule()
	mon.Health().RegisterReadiness(checks.Database(db, time.Second))

	router, err := api.NewRouter(api.Deps{
		Config:     cfg,
		JWT:        jwtSvc,
		Sessions:   sessionSvc,
		Users:      users,
		Documents:  documents,
		Market:     market,
		Advisor:    advisor,
		Monitoring: mon,
		RateStore:  store,
	})
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Router:     router,
		JWT:        jwtSvc,
		Sessions:   sessionSvc,
		Documents:  documents,
		Local:      local,
		Monitoring: mon,
	}
}

// TokenPair mirrors the issued token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AuthProvider string `json:"auth_provider"`
}

// AuthResult bundles the JSON response from the sign-up and login endpoints.
type AuthResult struct {
	Tokens TokenPair   `json:"tokens"`
	User   UserPayload `json:"user"`
}

// Signup registers a password account and returns the issued tokens.
func (e *Env) Signup(email, password string) AuthResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test User",
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	return e.decodeAuth(w, email)
}

// Login authenticates a password account and returns the issued tokens.
func (e *Env) Login(email, password string) AuthResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	return e.decodeAuth(w, email)
}

func (e *Env) decodeAuth(w *httptest.ResponseRecorder, email string) AuthResult {
	e.T.Helper()

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result AuthResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Tokens.AccessToken)
	require.NotEmpty(e.T, result.Tokens.RefreshToken)
	require.Equal(e.T, email, result.User.Email)
	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, token)
}

// Upload posts a multipart document with the given form fields.
func (e *Env) Upload(filename, contentType string, data []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(e.T, writer.WriteField(key, value))
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="document"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	require.NoError(e.T, err)
	_, err = part.Write(data)
	require.NoError(e.T, err)
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/documents", &buf)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.serve(req, token)
}

func (e *Env) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
