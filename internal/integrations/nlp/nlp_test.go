package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFinancialData(t *testing.T) {
	entities := []Entity{
		{Name: "Monthly Salary", Metadata: map[string]string{"value": "85000"}},
		{Name: "Home Loan EMI", Metadata: map[string]string{"amount": "23000"}},
		{Name: "Mutual Fund SIP", Metadata: map[string]string{"amount": "10000"}},
		{Name: "Credit Card", Metadata: map[string]string{"value": "12000"}},
		{Name: "Mumbai"},
	}

	data := ExtractFinancialData(entities)
	require.Equal(t, "85000", data.Income)
	require.Equal(t, "12000", data.Expenses)
	require.Equal(t, []Holding{{Type: "home loan emi", Amount: "23000"}}, data.Loans)
	require.Equal(t, []Holding{{Type: "mutual fund sip", Amount: "10000"}}, data.Investments)
}

func TestExtractFinancialDataEmpty(t *testing.T) {
	data := ExtractFinancialData(nil)
	require.NotNil(t, data.Loans)
	require.NotNil(t, data.Investments)
	require.Empty(t, data.Income)
}

func TestKeywordEntities(t *testing.T) {
	text := "Net Salary credited Rs. 85,000.00\nOpening balance 1,000\nCar loan EMI INR 12,500"

	entities := KeywordEntities(text)
	require.Len(t, entities, 2)
	require.Equal(t, "salary", entities[0].Name)
	require.Equal(t, "85000.00", entities[0].Metadata["amount"])
	require.Equal(t, "loan", entities[1].Name)
	require.Equal(t, "12500", entities[1].Metadata["amount"])

	data := ExtractFinancialData(entities)
	require.Equal(t, "85000.00", data.Income)
	require.Len(t, data.Loans, 1)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestAnalyzeEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		document := body["document"].(map[string]any)
		require.Equal(t, "PLAIN_TEXT", document["type"])
		require.Equal(t, "UTF8", body["encodingType"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities":[{"name":"salary","type":"OTHER","salience":0.4,"metadata":{"value":"50000"}}],"language":"en"}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "k", Endpoint: srv.URL + "/"}, nil)
	require.NoError(t, err)

	entities, err := client.AnalyzeEntities(context.Background(), "salary 50000")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, "50000", entities[0].Metadata["value"])
}
