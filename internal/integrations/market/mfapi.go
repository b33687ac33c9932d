package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
)

// DefaultMFAPIBaseURL is the public AMFI mutual fund API.
const DefaultMFAPIBaseURL = "https://api.mfapi.in"

// Fund is a mutual fund scheme.
type Fund struct {
	SchemeCode int    `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
}

// FundNAV is the latest net asset value of a scheme.
type FundNAV struct {
	SchemeCode     int     `json:"schemeCode"`
	SchemeName     string  `json:"schemeName"`
	FundHouse      string  `json:"fundHouse,omitempty"`
	SchemeType     string  `json:"schemeType,omitempty"`
	SchemeCategory string  `json:"schemeCategory,omitempty"`
	NAV            float64 `json:"nav"`
	Date           string  `json:"date"`
}

// MFAPI reads scheme data from mfapi.in.
type MFAPI struct {
	client  *httpjson.Client
	baseURL string
}

// NewMFAPI returns an mfapi.in client. An empty baseURL selects the public endpoint.
func NewMFAPI(client *httpjson.Client, baseURL string) *MFAPI {
	if baseURL == "" {
		baseURL = DefaultMFAPIBaseURL
	}
	return &MFAPI{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Search returns schemes matching query, or every scheme when query is empty.
// At most limit schemes are returned when limit is positive.
func (m *MFAPI) Search(ctx context.Context, query string, limit int) ([]Fund, error) {
	var (
		funds []Fund
		err   error
	)
	query = strings.TrimSpace(query)
	if query == "" {
		err = m.client.Get(ctx, m.baseURL+"/mf", nil, &funds)
	} else {
		err = m.client.Get(ctx, m.baseURL+"/mf/search", url.Values{"q": {query}}, &funds)
	}
	if err != nil {
		return nil, fmt.Errorf("mutual funds: %w", err)
	}
	if limit > 0 && len(funds) > limit {
		funds = funds[:limit]
	}
	return funds, nil
}

// Latest returns the latest NAV of a scheme.
func (m *MFAPI) Latest(ctx context.Context, schemeCode int) (FundNAV, error) {
	var payload struct {
		Meta struct {
			FundHouse      string `json:"fund_house"`
			SchemeType     string `json:"scheme_type"`
			SchemeCategory string `json:"scheme_category"`
			SchemeCode     int    `json:"scheme_code"`
			SchemeName     string `json:"scheme_name"`
		} `json:"meta"`
		Data []struct {
			Date string `json:"date"`
			NAV  string `json:"nav"`
		} `json:"data"`
		Status string `json:"status"`
	}

	addr := m.baseURL + "/mf/" + strconv.Itoa(schemeCode) + "/latest"
	if err := m.client.Get(ctx, addr, nil, &payload); err != nil {
		return FundNAV{}, fmt.Errorf("mutual fund %d: %w", schemeCode, err)
	}
	if len(payload.Data) == 0 {
		return FundNAV{}, fmt.Errorf("mutual fund %d: no NAV data", schemeCode)
	}

	nav, err := decimal.NewFromString(payload.Data[0].NAV)
	if err != nil {
		return FundNAV{}, fmt.Errorf("mutual fund %d: invalid nav %q: %w", schemeCode, payload.Data[0].NAV, err)
	}

	return FundNAV{
		SchemeCode:     payload.Meta.SchemeCode,
		SchemeName:     payload.Meta.SchemeName,
		FundHouse:      payload.Meta.FundHouse,
		SchemeType:     payload.Meta.SchemeType,
		SchemeCategory: payload.Meta.SchemeCategory,
		NAV:            nav.Round(4).InexactFloat64(),
		Date:           payload.Data[0].Date,
	}, nil
}
