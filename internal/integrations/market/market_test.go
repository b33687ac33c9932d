package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
)

func chartPayload(price, previous float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"INR","regularMarketPrice":%v,"chartPreviousClose":%v,"regularMarketVolume":1200,"fiftyTwoWeekHigh":4300.5,"fiftyTwoWeekLow":3100}}],"error":null}}`, price, previous)
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"TCS":         "TCS.NS",
		"tcs":         "TCS.NS",
		"RELIANCE.NS": "RELIANCE.NS",
		"500325.BO":   "500325.BO",
		"ZOMATO":      "ZOMATO.NS",
		"^NSEI":       "^NSEI",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestQuoteComputesChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/TCS.NS"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(chartPayload(4100, 4000)))
	}))
	defer srv.Close()

	yahoo := NewYahoo(httpjson.New("yahoo"), srv.URL+"/")
	stock, err := yahoo.Quote(context.Background(), "tcs")
	require.NoError(t, err)
	require.Equal(t, "TCS.NS", stock.Symbol)
	require.Equal(t, "Tata Consultancy Services Ltd", stock.CompanyName)
	require.Equal(t, 4100.0, stock.CurrentPrice)
	require.Equal(t, 100.0, stock.Change)
	require.Equal(t, 2.5, stock.ChangePercent)
	require.EqualValues(t, 1200, stock.Volume)
	require.Equal(t, 4300.5, stock.High52Week)
}

func TestQuoteWithoutResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahoo(httpjson.New("yahoo"), srv.URL+"/").Quote(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrNoChartData)
}

func TestOverviewCollectsIndicesAndMovers(t *testing.T) {
	changes := map[string]float64{
		"RELIANCE.NS": 3, "TCS.NS": -2, "HDFCBANK.NS": 1, "INFY.NS": -4,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if strings.HasPrefix(symbol, "^") {
			_, _ = w.Write([]byte(chartPayload(22000, 21780)))
			return
		}
		pct, ok := changes[symbol]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(chartPayload(100+pct, 100)))
	}))
	defer srv.Close()

	overview, err := NewYahoo(httpjson.New("yahoo"), srv.URL+"/").Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Indices, len(TrackedIndices))
	require.Equal(t, 22000.0, overview.Indices["nifty"].Value)
	require.Equal(t, 220.0, overview.Indices["sensex"].Change)

	require.Len(t, overview.TopGainers, 2)
	require.Equal(t, "RELIANCE.NS", overview.TopGainers[0].Symbol)
	require.Len(t, overview.TopLosers, 2)
	require.Equal(t, "INFY.NS", overview.TopLosers[0].Symbol)
}

func TestOverviewFailsWhenNothingFetched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewYahoo(httpjson.New("yahoo"), srv.URL+"/").Overview(context.Background())
	require.Error(t, err)
}

func TestMoversLimit(t *testing.T) {
	var stocks []Stock
	for i := -7; i <= 7; i++ {
		stocks = append(stocks, Stock{Symbol: fmt.Sprint(i), ChangePercent: float64(i)})
	}
	gainers, losers := Movers(stocks, 5)
	require.Len(t, gainers, 5)
	require.Equal(t, 7.0, gainers[0].ChangePercent)
	require.Len(t, losers, 5)
	require.Equal(t, -7.0, losers[0].ChangePercent)
}

func TestMFAPISearchAndLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mf/search":
			require.Equal(t, "bluechip", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`[{"schemeCode":120465,"schemeName":"Axis Bluechip Fund"},{"schemeCode":120586,"schemeName":"ICICI Prudential Bluechip Fund"}]`))
		case "/mf/120465/latest":
			_, _ = w.Write([]byte(`{"meta":{"fund_house":"Axis Mutual Fund","scheme_code":120465,"scheme_name":"Axis Bluechip Fund"},"data":[{"date":"01-03-2024","nav":"58.12340"}],"status":"SUCCESS"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	mf := NewMFAPI(httpjson.New("mfapi"), srv.URL)

	funds, err := mf.Search(context.Background(), "bluechip", 1)
	require.NoError(t, err)
	require.Len(t, funds, 1)
	require.Equal(t, 120465, funds[0].SchemeCode)

	nav, err := mf.Latest(context.Background(), 120465)
	require.NoError(t, err)
	require.Equal(t, 58.1234, nav.NAV)
	require.Equal(t, "Axis Mutual Fund", nav.FundHouse)

	_, err = mf.Latest(context.Background(), 1)
	require.Error(t, err)
}
