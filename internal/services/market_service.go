package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/internal/integrations/market"
	"github.com/fi-advisor/fi/internal/integrations/news"
	"github.com/fi-advisor/fi/internal/integrations/search"
	"github.com/fi-advisor/fi/internal/ratelimit"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/validator"
)

// Cache lifetimes and keys for market data.
const (
	OverviewTTL      = time.Hour
	FundsTTL         = time.Hour
	overviewCacheKey = "market_overview"
	quoteNewsLimit   = 5
	yahooLimiterKey  = "yahoo"
	mfapiLimiterKey  = "mfapi"
)

// QuoteSource provides equity quotes and a market overview.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (market.Stock, error)
	Overview(ctx context.Context) (market.Overview, error)
}

// FundSource provides mutual fund data.
type FundSource interface {
	Search(ctx context.Context, query string, limit int) ([]market.Fund, error)
	Latest(ctx context.Context, schemeCode int) (market.FundNAV, error)
}

// NewsSource searches recent news articles.
type NewsSource interface {
	Search(ctx context.Context, query string, limit int) ([]news.Article, error)
}

// WebSearcher runs web searches.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// MarketDeps wires the upstream sources of a MarketService. Nil sources disable
// the corresponding operations.
type MarketDeps struct {
	Quotes  QuoteSource
	Funds   FundSource
	News    NewsSource
	Search  WebSearcher
	Limiter httpjson.Limiter
	// Shared is consulted after the in-process caches so that instances share results.
	Shared     cache.Store
	MaxEntries int
	Clock      func() time.Time
}

// StockQuote is a quote together with related news.
type StockQuote struct {
	Stock market.Stock   `json:"stock"`
	News  []news.Article `json:"news"`
}

// MarketService serves market data through in-process TTL caches and the outbound limiter.
type MarketService struct {
	deps MarketDeps

	news     *cache.TTL[[]news.Article]
	search   *cache.TTL[[]search.Result]
	quotes   *cache.TTL[market.Stock]
	overview *cache.TTL[market.Overview]

	log *zap.Logger
}

// NewMarketService constructs a MarketService.
func NewMarketService(deps MarketDeps) *MarketService {
	opts := []cache.Option{cache.WithMaxEntries(deps.MaxEntries)}
	if deps.Clock != nil {
		opts = append(opts, cache.WithClock(deps.Clock))
	}
	return &MarketService{
		deps:     deps,
		news:     cache.NewTTL[[]news.Article]("news", opts...),
		search:   cache.NewTTL[[]search.Result]("search", opts...),
		quotes:   cache.NewTTL[market.Stock]("quotes", opts...),
		overview: cache.NewTTL[market.Overview]("overview", opts...),
		log:      logger.WithModule("market"),
	}
}

// Caches returns the in-process caches for periodic sweeping.
func (s *MarketService) Caches() []cache.Sweeper {
	return []cache.Sweeper{s.news, s.search, s.quotes, s.overview}
}

// StockQuote returns the latest quote for symbol with up to five related articles.
// The boolean reports whether the quote came from cache.
func (s *MarketService) StockQuote(ctx context.Context, symbol string) (StockQuote, bool, error) {
	ctx = ensureContext(ctx)
	if s.deps.Quotes == nil {
		return StockQuote{}, false, apperrors.ErrServiceDisabled
	}

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return StockQuote{}, false, apperrors.NewBadRequest("symbol is required")
	}
	if !validator.IsTicker(symbol) {
		return StockQuote{}, false, apperrors.NewBadRequest("symbol must be an exchange ticker such as RELIANCE.NS")
	}
	normalized := market.NormalizeSymbol(symbol)

	key := "quote_" + normalized
	stock, cached := cachedLookup(ctx, s, s.quotes, key, cache.QuoteTTL)
	if !cached {
		if err := s.acquire(ctx, yahooLimiterKey); err != nil {
			return StockQuote{}, false, err
		}
		fetched, err := s.deps.Quotes.Quote(ctx, normalized)
		if err != nil {
			return StockQuote{}, false, apperrors.NewUpstream("yahoo finance", err)
		}
		stock = fetched
		cacheStore(ctx, s, s.quotes, key, stock, cache.QuoteTTL)
	}

	query := firstNonEmpty(stock.CompanyName, strings.TrimSuffix(strings.TrimSuffix(normalized, ".NS"), ".BO"))
	articles, _, err := s.News(ctx, query, quoteNewsLimit)
	if err != nil {
		articles = []news.Article{}
	}
	return StockQuote{Stock: stock, News: articles}, cached, nil
}

// Overview returns the market overview, cached for an hour.
func (s *MarketService) Overview(ctx context.Context) (market.Overview, bool, error) {
	ctx = ensureContext(ctx)
	if s.deps.Quotes == nil {
		return market.Overview{}, false, apperrors.ErrServiceDisabled
	}

	if overview, ok := cachedLookup(ctx, s, s.overview, overviewCacheKey, OverviewTTL); ok {
		return overview, true, nil
	}
	if err := s.acquire(ctx, yahooLimiterKey); err != nil {
		return market.Overview{}, false, err
	}
	overview, err := s.deps.Quotes.Overview(ctx)
	if err != nil {
		return market.Overview{}, false, apperrors.NewUpstream("yahoo finance", err)
	}
	cacheStore(ctx, s, s.overview, overviewCacheKey, overview, OverviewTTL)
	return overview, false, nil
}

// MutualFunds searches mutual fund schemes.
func (s *MarketService) MutualFunds(ctx context.Context, query string, limit int) ([]market.Fund, bool, error) {
	ctx = ensureContext(ctx)
	if s.deps.Funds == nil {
		return nil, false, apperrors.ErrServiceDisabled
	}
	if limit <= 0 {
		limit = 20
	}

	key := fmt.Sprintf("funds_%s_%d", strings.ToLower(strings.TrimSpace(query)), limit)
	if funds, ok, err := cache.GetJSON[[]market.Fund](ctx, s.deps.Shared, key); err == nil && ok {
		return funds, true, nil
	}

	if err := s.acquire(ctx, mfapiLimiterKey); err != nil {
		return nil, false, err
	}
	funds, err := s.deps.Funds.Search(ctx, query, limit)
	if err != nil {
		return nil, false, s.upstreamError("mfapi", err)
	}
	if funds == nil {
		funds = []market.Fund{}
	}
	if len(funds) > 0 {
		s.storeShared(ctx, key, funds, FundsTTL)
	}
	return funds, false, nil
}

// FundNAV returns the latest NAV of a scheme.
func (s *MarketService) FundNAV(ctx context.Context, schemeCode int) (market.FundNAV, error) {
	ctx = ensureContext(ctx)
	if s.deps.Funds == nil {
		return market.FundNAV{}, apperrors.ErrServiceDisabled
	}
	if schemeCode <= 0 {
		return market.FundNAV{}, apperrors.NewBadRequest("scheme code must be positive")
	}
	if err := s.acquire(ctx, mfapiLimiterKey); err != nil {
		return market.FundNAV{}, err
	}
	nav, err := s.deps.Funds.Latest(ctx, schemeCode)
	if err != nil {
		return market.FundNAV{}, s.upstreamError("mfapi", err)
	}
	return nav, nil
}

// News returns recent articles for query, cached for 30 minutes under news_<query>_<limit>.
// Upstream failures yield an empty list and empty results are not cached.
func (s *MarketService) News(ctx context.Context, query string, limit int) ([]news.Article, bool, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 5
	}
	key := fmt.Sprintf("news_%s_%d", query, limit)
	if articles, ok := cachedLookup(ctx, s, s.news, key, cache.NewsTTL); ok {
		return articles, true, nil
	}
	if s.deps.News == nil {
		return []news.Article{}, false, nil
	}

	articles, err := s.deps.News.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			return nil, false, apperrors.ErrRateLimit.WithInternal(err)
		}
		s.log.Warn("news lookup failed", zap.String("query", query), zap.Error(err))
		return []news.Article{}, false, nil
	}
	if len(articles) > 0 {
		cacheStore(ctx, s, s.news, key, articles, cache.NewsTTL)
	}
	if articles == nil {
		articles = []news.Article{}
	}
	return articles, false, nil
}

// Search runs a web search, cached for an hour under search_<query>_<limit>.
// Upstream failures yield an empty list and empty results are not cached.
func (s *MarketService) Search(ctx context.Context, query string, limit int) ([]search.Result, bool, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 5
	}
	key := fmt.Sprintf("search_%s_%d", query, limit)
	if results, ok := cachedLookup(ctx, s, s.search, key, cache.SearchTTL); ok {
		return results, true, nil
	}
	if s.deps.Search == nil {
		return []search.Result{}, false, nil
	}

	results, err := s.deps.Search.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			return nil, false, apperrors.ErrRateLimit.WithInternal(err)
		}
		s.log.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return []search.Result{}, false, nil
	}
	if len(results) > 0 {
		cacheStore(ctx, s, s.search, key, results, cache.SearchTTL)
	}
	if results == nil {
		results = []search.Result{}
	}
	return results, false, nil
}

func (s *MarketService) acquire(ctx context.Context, key string) error {
	if s.deps.Limiter == nil {
		return nil
	}
	if err := s.deps.Limiter.Acquire(ctx, key); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			return apperrors.ErrRateLimit.WithInternal(err)
		}
		return err
	}
	return nil
}

func (s *MarketService) upstreamError(provider string, err error) error {
	if errors.Is(err, ratelimit.ErrRateLimited) {
		return apperrors.ErrRateLimit.WithInternal(err)
	}
	return apperrors.NewUpstream(provider, err)
}

func (s *MarketService) storeShared(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, s.deps.Shared, key, value, ttl); err != nil {
		s.log.Debug("shared cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// cachedLookup checks the in-process cache first, then the shared store. A shared
// hit is promoted for the time it has left, never longer than ttl.
func cachedLookup[V any](ctx context.Context, s *MarketService, local *cache.TTL[V], key string, ttl time.Duration) (V, bool) {
	if value, ok := local.Get(key); ok {
		return value, true
	}
	value, remaining, ok, err := cache.GetJSONWithTTL[V](ctx, s.deps.Shared, key)
	if err != nil {
		s.log.Debug("shared cache read failed", zap.String("key", key), zap.Error(err))
		return value, false
	}
	if ok {
		local.Set(key, value, promotionTTL(remaining, ttl))
	}
	return value, ok
}

func promotionTTL(remaining, ttl time.Duration) time.Duration {
	if remaining <= 0 {
		return ttl
	}
	return min(remaining, ttl)
}

func cacheStore[V any](ctx context.Context, s *MarketService, local *cache.TTL[V], key string, value V, ttl time.Duration) {
	local.Set(key, value, ttl)
	s.storeShared(ctx, key, value, ttl)
}
