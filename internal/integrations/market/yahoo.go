package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
)

// DefaultYahooBaseURL is the Yahoo Finance chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

const (
	moversLimit     = 5
	overviewWorkers = 4
)

// ErrNoChartData is returned when Yahoo has no chart result for a symbol.
var ErrNoChartData = errors.New("market: no chart data")

// Stock is a quote for one equity.
type Stock struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"companyName,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	CurrentPrice  float64 `json:"currentPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"marketCap,omitempty"`
	High52Week    float64 `json:"high52Week,omitempty"`
	Low52Week     float64 `json:"low52Week,omitempty"`
}

// IndexValue is the latest level of an index.
type IndexValue struct {
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Overview summarises the market.
type Overview struct {
	Indices    map[string]IndexValue `json:"indices"`
	TopGainers []Stock               `json:"topGainers"`
	TopLosers  []Stock               `json:"topLosers"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Yahoo reads quotes from the Yahoo Finance chart API.
type Yahoo struct {
	client  *httpjson.Client
	baseURL string
	now     func() time.Time
}

// NewYahoo returns a Yahoo client. An empty baseURL selects the public endpoint.
func NewYahoo(client *httpjson.Client, baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &Yahoo{client: client, baseURL: baseURL, now: time.Now}
}

// Quote returns the latest quote for symbol after normalisation.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (Stock, error) {
	normalized := NormalizeSymbol(symbol)
	meta, err := y.chartMeta(ctx, normalized)
	if err != nil {
		return Stock{}, err
	}

	price := metaDecimal(meta, "regularMarketPrice")
	change, changePercent := priceChange(price, metaDecimal(meta, "chartPreviousClose"))

	return Stock{
		Symbol:        normalized,
		CompanyName:   CompanyName(normalized),
		Currency:      metaString(meta, "currency"),
		CurrentPrice:  price.InexactFloat64(),
		Change:        change.InexactFloat64(),
		ChangePercent: changePercent.InexactFloat64(),
		Volume:        metaDecimal(meta, "regularMarketVolume").IntPart(),
		MarketCap:     metaDecimal(meta, "marketCap").InexactFloat64(),
		High52Week:    metaDecimal(meta, "fiftyTwoWeekHigh").InexactFloat64(),
		Low52Week:     metaDecimal(meta, "fiftyTwoWeekLow").InexactFloat64(),
	}, nil
}

// IndexLevel returns the latest level of an index symbol such as ^NSEI.
func (y *Yahoo) IndexLevel(ctx context.Context, symbol string) (IndexValue, error) {
	meta, err := y.chartMeta(ctx, symbol)
	if err != nil {
		return IndexValue{}, err
	}
	value := metaDecimal(meta, "regularMarketPrice")
	change, changePercent := priceChange(value, metaDecimal(meta, "chartPreviousClose"))
	return IndexValue{
		Value:         value.InexactFloat64(),
		Change:        change.InexactFloat64(),
		ChangePercent: changePercent.InexactFloat64(),
	}, nil
}

// Overview fetches the tracked indices and known stocks. Individual failures are
// skipped; an error is returned only when nothing could be fetched.
func (y *Yahoo) Overview(ctx context.Context) (Overview, error) {
	var (
		mu       sync.Mutex
		indices  = make(map[string]IndexValue, len(TrackedIndices))
		stocks   = make([]Stock, 0, len(KnownStocks))
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewWorkers)
	for _, index := range TrackedIndices {
		g.Go(func() error {
			value, err := y.IndexLevel(gctx, index.Symbol)
			if err != nil {
				record(err)
				return nil
			}
			mu.Lock()
			indices[index.Name] = value
			mu.Unlock()
			return nil
		})
	}
	for _, known := range KnownStocks {
		g.Go(func() error {
			stock, err := y.Quote(gctx, known.Symbol)
			if err != nil {
				record(err)
				return nil
			}
			mu.Lock()
			stocks = append(stocks, stock)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(indices) == 0 && len(stocks) == 0 {
		if firstErr == nil {
			firstErr = ErrNoChartData
		}
		return Overview{}, fmt.Errorf("market overview: %w", firstErr)
	}

	gainers, losers := Movers(stocks, moversLimit)
	return Overview{
		Indices:    indices,
		TopGainers: gainers,
		TopLosers:  losers,
		Timestamp:  y.now().UTC(),
	}, nil
}

// Movers splits stocks into the best risers and worst fallers, at most limit each.
func Movers(stocks []Stock, limit int) (gainers, losers []Stock) {
	sorted := append([]Stock(nil), stocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChangePercent > sorted[j].ChangePercent
	})

	gainers = make([]Stock, 0, limit)
	for _, stock := range sorted {
		if stock.ChangePercent > 0 && len(gainers) < limit {
			gainers = append(gainers, stock)
		}
	}
	losers = make([]Stock, 0, limit)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].ChangePercent < 0 && len(losers) < limit {
			losers = append(losers, sorted[i])
		}
	}
	return gainers, losers
}

func (y *Yahoo) chartMeta(ctx context.Context, symbol string) (map[string]any, error) {
	var payload any
	addr := y.baseURL + url.PathEscape(symbol)
	if err := y.client.Get(ctx, addr, url.Values{"interval": {"1d"}}, &payload); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}

	jval, err := jsonpath.Get("$.chart.result[0].meta", payload)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, ErrNoChartData)
	}
	// jsonpath may wrap a single match in a list.
	if list, ok := jval.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("chart %s: %w", symbol, ErrNoChartData)
		}
		jval = list[0]
	}
	meta, ok := jval.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("chart %s: %w", symbol, ErrNoChartData)
	}
	if _, ok := meta["regularMarketPrice"].(float64); !ok {
		return nil, fmt.Errorf("chart %s: missing regularMarketPrice: %w", symbol, ErrNoChartData)
	}
	return meta, nil
}

// priceChange returns the absolute change and the percentage change rounded to two places.
func priceChange(current, previous decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	change := current.Sub(previous).Round(4)
	if previous.IsZero() {
		return change, decimal.Zero
	}
	percent := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	return change, percent
}

func metaDecimal(meta map[string]any, field string) decimal.Decimal {
	value, ok := meta[field].(float64)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

func metaString(meta map[string]any, field string) string {
	value, _ := meta[field].(string)
	return value
}
