package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/api"
	"github.com/fi-advisor/fi/internal/app"
	"github.com/fi-advisor/fi/internal/app/maintenance"
	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/internal/database"
	"github.com/fi-advisor/fi/internal/docstore"
	"github.com/fi-advisor/fi/internal/integrations/gemini"
	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/internal/integrations/market"
	"github.com/fi-advisor/fi/internal/integrations/news"
	"github.com/fi-advisor/fi/internal/integrations/nlp"
	"github.com/fi-advisor/fi/internal/integrations/openai"
	"github.com/fi-advisor/fi/internal/integrations/search"
	"github.com/fi-advisor/fi/internal/monitoring"
	"github.com/fi-advisor/fi/internal/monitoring/checks"
	"github.com/fi-advisor/fi/internal/ratelimit"
	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/internal/storage/blob"
	"github.com/fi-advisor/fi/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisStore
	Store      cache.Store
	Blobs      blob.Storage
	Limiter    *ratelimit.SlidingWindow
	Monitoring *monitoring.Module
	Cleaner    *maintenance.Cleaner
	Router     *gin.Engine
}

// bootstrapRuntime initialises databases, caches, integrations, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial start-up cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var dbStore *cache.DatabaseStore
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}
	if stack.Redis != nil {
		stack.Store = stack.Redis
	} else {
		dbStore = cache.NewDatabaseStore(stack.DB)
		stack.Store = dbStore
	}

	stack.Blobs = initialiseBlobStorage(ctx, cfg, log)

	policy, err := ratelimit.ParsePolicy(cfg.RateLimit.Outbound.Policy)
	if err != nil {
		return nil, err
	}
	stack.Limiter = ratelimit.NewSlidingWindow(ratelimit.Config{
		Limit:  cfg.RateLimit.Outbound.Limit,
		Window: cfg.RateLimit.Outbound.Window,
		Policy: policy,
	})

	clients := initialiseIntegrations(ctx, cfg, stack.Limiter, log)

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionCfg := cfg.Auth.SessionServiceConfig()
	sessionCfg.Cache = iauth.NewSessionCache(stack.Store)
	sessionSvc, err := iauth.NewSessionService(stack.DB, jwtSvc, sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	var (
		google   services.GoogleAuthenticator
		userOpts []services.UserOption
	)
	if cfg.Auth.GoogleEnabled() {
		google = iauth.NewGoogleVerifier(cfg.Auth.GoogleVerifierConfig())
		if cfg.Auth.GoogleRedirectEnabled() {
			codec, err := iauth.NewStateCodec(cfg.Auth.JWT.Secret, 0, nil)
			if err != nil {
				return nil, fmt.Errorf("initialise google state: %w", err)
			}
			userOpts = append(userOpts, services.WithGoogleState(codec))
		}
	}
	userSvc, err := services.NewUserService(stack.DB, google, userOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	documentSvc, err := services.NewDocumentService(stack.DB, stack.Blobs, docstore.New(), clients.analyzer,
		services.WithMaxUploadSize(int64(cfg.Server.MaxUploadMB)<<20))
	if err != nil {
		return nil, fmt.Errorf("initialise document service: %w", err)
	}

	marketSvc := services.NewMarketService(services.MarketDeps{
		Quotes:     clients.quotes,
		Funds:      clients.funds,
		News:       clients.news,
		Search:     clients.search,
		Limiter:    stack.Limiter,
		Shared:     stack.Store,
		MaxEntries: cfg.Cache.MaxEntries,
	})

	advisorSvc, err := services.NewAdvisorService(services.AdvisorDeps{
		DB:        stack.DB,
		Generator: clients.generator,
		Chat:      clients.chat,
		Completer: clients.completer,
		Users:     userSvc,
		Documents: documentSvc,
		Market:    marketSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise advisor service: %w", err)
	}

	stack.Monitoring = monitoring.NewModule()
	registerHealthChecks(stack, cfg)

	if cfg.Maintenance.Enabled {
		opts := []maintenance.Option{
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithSessions(sessionSvc),
			maintenance.WithSweepers(marketSvc.Caches()...),
			maintenance.WithLimiter(stack.Limiter),
			maintenance.WithRecorder(stack.Monitoring),
		}
		if dbStore != nil {
			opts = append(opts, maintenance.WithStore(dbStore))
		}
		stack.Cleaner = maintenance.NewCleaner(opts...)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Deps{
		Config:     cfg,
		JWT:        jwtSvc,
		Sessions:   sessionSvc,
		Users:      userSvc,
		Documents:  documentSvc,
		Market:     marketSvc,
		Advisor:    advisorSvc,
		Monitoring: stack.Monitoring,
		RateStore:  stack.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and releases resources, returning every failure.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("maintenance shutdown cleanup: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errs
}

func registerHealthChecks(stack *runtimeStack, cfg *app.Config) {
	health := stack.Monitoring.Health()
	health.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Component: "process", Status: monitoring.StatusUp}
	}))
	health.RegisterReadiness(checks.Database(stack.DB, 0))
	if stack.Redis != nil {
		health.RegisterReadiness(checks.Redis(stack.Redis, true, cfg.Cache.Redis.Timeout))
	}
	if cfg.Storage.S3.Enabled {
		health.RegisterReadiness(checks.Blob(stack.Blobs, 0))
	}
	if cfg.Maintenance.Enabled {
		health.RegisterReadiness(checks.Maintenance(stack.Monitoring, 0))
	}
}

// initialiseBlobStorage returns nil when object storage is disabled or unreachable, in
// which case document files are kept in process.
func initialiseBlobStorage(ctx context.Context, cfg *app.Config, log *zap.Logger) blob.Storage {
	s3 := cfg.Storage.S3
	if !s3.Enabled {
		return nil
	}

	minioStore, err := blob.NewMinio(ctx, blob.MinioConfig{
		Endpoint:     s3.Endpoint,
		Region:       s3.Region,
		Bucket:       s3.Bucket,
		AccessKey:    s3.AccessKey,
		SecretKey:    s3.SecretKey,
		UseSSL:       s3.UseSSL,
		PathStyle:    s3.PathStyle,
		CreateBucket: s3.CreateBucket,
	})
	if err != nil {
		log.Warn("object storage unavailable; documents fall back to the local store", zap.Error(err))
		return nil
	}
	log.Info("object storage connected", zap.String("endpoint", s3.Endpoint), zap.String("bucket", s3.Bucket))

	if !cfg.Storage.EncryptionEnabled() {
		return minioStore
	}
	encrypted, err := blob.NewEncrypted(minioStore, string(cfg.Storage.EncryptionKeyBytes()))
	if err != nil {
		log.Warn("blob encryption disabled", zap.Error(err))
		return minioStore
	}
	return encrypted
}

type integrationClients struct {
	quotes    services.QuoteSource
	funds     services.FundSource
	news      services.NewsSource
	search    services.WebSearcher
	analyzer  services.EntityAnalyzer
	generator services.TextGenerator
	chat      services.Conversationalist
	completer services.JSONCompleter
}

// initialiseIntegrations builds the external API clients. Unconfigured providers are
// left nil so that the services fall back to their defaults.
func initialiseIntegrations(ctx context.Context, cfg *app.Config, limiter *ratelimit.SlidingWindow, log *zap.Logger) integrationClients {
	var clients integrationClients
	mc := cfg.Market

	yahoo := httpjson.New("yahoo",
		httpjson.WithTimeout(mc.Timeout),
		httpjson.WithPacing(mc.Yahoo.RequestsPerSecond, 1),
	)
	clients.quotes = market.NewYahoo(yahoo, mc.Yahoo.BaseURL)

	mfapi := httpjson.New("mfapi", httpjson.WithTimeout(mc.Timeout))
	clients.funds = market.NewMFAPI(mfapi, mc.MFAPI.BaseURL)

	if strings.TrimSpace(mc.NewsAPI.APIKey) != "" {
		newsHTTP := httpjson.New("newsapi",
			httpjson.WithTimeout(mc.Timeout),
			httpjson.WithLimiter(limiter, "newsapi"),
		)
		clients.news = news.New(newsHTTP, mc.NewsAPI.BaseURL, mc.NewsAPI.APIKey)
	} else {
		log.Info("news integration disabled")
	}

	if client, err := search.New(ctx, search.Config{APIKey: mc.Search.APIKey, EngineID: mc.Search.EngineID}, limiter); err == nil {
		clients.search = client
	} else {
		logIntegration(log, "search", err, search.ErrNotConfigured)
	}

	if client, err := nlp.New(ctx, nlp.Config{APIKey: mc.NLP.APIKey, CredentialsFile: mc.NLP.CredentialsFile}, limiter); err == nil {
		clients.analyzer = client
	} else {
		logIntegration(log, "nlp", err, nlp.ErrNotConfigured)
	}

	ai := cfg.AI
	if client, err := gemini.New(ctx, gemini.Config{APIKey: ai.Gemini.APIKey, Model: ai.Gemini.Model, BaseURL: ai.Gemini.BaseURL}, limiter); err == nil {
		clients.generator = client
		clients.chat = client
	} else {
		logIntegration(log, "gemini", err, gemini.ErrNotConfigured)
	}

	if client, err := openai.New(openai.Config{APIKey: ai.OpenAI.APIKey, Model: ai.OpenAI.Model, BaseURL: ai.OpenAI.BaseURL}, limiter); err == nil {
		clients.completer = client
	} else {
		logIntegration(log, "openai", err, openai.ErrNotConfigured)
	}

	return clients
}

func logIntegration(log *zap.Logger, name string, err, notConfigured error) {
	if errors.Is(err, notConfigured) {
		log.Info("integration disabled", zap.String("integration", name))
		return
	}
	log.Warn("integration unavailable", zap.String("integration", name), zap.Error(err))
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
