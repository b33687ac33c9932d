package market

import "strings"

// KnownStock is a large-cap Indian equity tracked by the market overview.
type KnownStock struct {
	Symbol string
	Name   string
}

// KnownStocks are the NSE large caps used for gainers and losers.
var KnownStocks = []KnownStock{
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries Ltd"},
	{Symbol: "TCS.NS", Name: "Tata Consultancy Services Ltd"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank Ltd"},
	{Symbol: "INFY.NS", Name: "Infosys Ltd"},
	{Symbol: "ICICIBANK.NS", Name: "ICICI Bank Ltd"},
	{Symbol: "HINDUNILVR.NS", Name: "Hindustan Unilever Ltd"},
	{Symbol: "SBIN.NS", Name: "State Bank of India"},
	{Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel Ltd"},
	{Symbol: "ITC.NS", Name: "ITC Ltd"},
	{Symbol: "KOTAKBANK.NS", Name: "Kotak Mahindra Bank Ltd"},
	{Symbol: "WIPRO.NS", Name: "Wipro Ltd"},
	{Symbol: "AXISBANK.NS", Name: "Axis Bank Ltd"},
	{Symbol: "ASIANPAINT.NS", Name: "Asian Paints Ltd"},
	{Symbol: "MARUTI.NS", Name: "Maruti Suzuki India Ltd"},
	{Symbol: "SUNPHARMA.NS", Name: "Sun Pharmaceutical Industries Ltd"},
}

// Index is a tracked market index.
type Index struct {
	Symbol string
	Name   string
}

// TrackedIndices are reported by the market overview, Indian indices first.
var TrackedIndices = []Index{
	{Symbol: "^NSEI", Name: "nifty"},
	{Symbol: "^BSESN", Name: "sensex"},
	{Symbol: "^NSEBANK", Name: "niftyBank"},
	{Symbol: "^CNXIT", Name: "niftyIT"},
	{Symbol: "^CNXPHARMA", Name: "niftyPharma"},
	{Symbol: "^DJI", Name: "dowJones"},
	{Symbol: "^IXIC", Name: "nasdaq"},
}

// NormalizeSymbol returns the exchange-qualified ticker. Symbols already on NSE
// (.NS) or BSE (.BO) and index symbols are returned as is; anything else is
// assumed to trade on NSE.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, ".NS") || strings.HasSuffix(upper, ".BO") || strings.HasPrefix(symbol, "^") {
		return upper
	}
	for _, stock := range KnownStocks {
		if strings.SplitN(stock.Symbol, ".", 2)[0] == upper {
			return stock.Symbol
		}
	}
	return upper + ".NS"
}

// CompanyName returns the name of a known stock, or "".
func CompanyName(symbol string) string {
	for _, stock := range KnownStocks {
		if stock.Symbol == symbol {
			return stock.Name
		}
	}
	return ""
}
