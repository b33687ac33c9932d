package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/handlers/testutil"
	"github.com/fi-advisor/fi/internal/integrations/gemini"
	"github.com/fi-advisor/fi/internal/ratelimit"
)

type stubChat struct {
	history []gemini.Message
	err     error
}

func (s *stubChat) Chat(_ context.Context, _ string, history []gemini.Message, message string) (string, error) {
	s.history = history
	if s.err != nil {
		return "", s.err
	}
	return "Consider an index fund for: " + message, nil
}

func TestRecommendationHandler_FallbacksWithoutAI(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Signup("advice@example.com", "Passw0rd!").Tokens.AccessToken

	risk := env.Request(http.MethodPost, "/api/recommendations/risk-assessment", map[string]any{
		"age":     "25-34",
		"horizon": "10+ years",
	}, token)
	require.Equal(t, http.StatusOK, risk.Code, risk.Body.String())
	riskResp := testutil.DecodeResponse(t, risk)
	require.True(t, riskResp.Meta.Fallback)
	var assessment struct {
		RiskScore   int    `json:"riskScore"`
		RiskProfile string `json:"riskProfile"`
	}
	testutil.DecodeInto(t, riskResp.Data, &assessment)
	require.Equal(t, 5, assessment.RiskScore)

	portfolio := env.Request(http.MethodPost, "/api/recommendations/portfolio", map[string]any{
		"responses": map[string]any{"goal": "wealth"},
	}, token)
	require.Equal(t, http.StatusOK, portfolio.Code, portfolio.Body.String())
	require.True(t, testutil.DecodeResponse(t, portfolio).Meta.Fallback)

	swot := env.Request(http.MethodPost, "/api/recommendations/swot", map[string]any{
		"portfolio": map[string]any{"equity": 60, "debt": 40},
	}, token)
	require.Equal(t, http.StatusOK, swot.Code, swot.Body.String())

	emptySwot := env.Request(http.MethodPost, "/api/recommendations/swot", map[string]any{}, token)
	require.Equal(t, http.StatusBadRequest, emptySwot.Code)

	history := env.Request(http.MethodGet, "/api/recommendations", nil, token)
	require.Equal(t, http.StatusOK, history.Code)
	require.Equal(t, 3, testutil.DecodeResponse(t, history).Meta.Total)

	risks := env.Request(http.MethodGet, "/api/recommendations?kind=risk&limit=10", nil, token)
	require.Equal(t, http.StatusOK, risks.Code)
	var views []struct {
		Kind     string `json:"kind"`
		Fallback bool   `json:"fallback"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, risks).Data, &views)
	require.Len(t, views, 1)
	require.Equal(t, "risk", views[0].Kind)
	require.True(t, views[0].Fallback)
}

func TestRecommendationHandler_RiskUsesStoredResponses(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Signup("stored@example.com", "Passw0rd!").Tokens.AccessToken

	noAnswers := env.Request(http.MethodPost, "/api/recommendations/risk-assessment", nil, token)
	require.Equal(t, http.StatusBadRequest, noAnswers.Code)

	update := env.Request(http.MethodPut, "/api/profile", map[string]any{
		"responses": map[string]any{"age": "45-54"},
	}, token)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())

	risk := env.Request(http.MethodPost, "/api/recommendations/risk-assessment", nil, token)
	require.Equal(t, http.StatusOK, risk.Code, risk.Body.String())
}

func TestChatHandler_Message(t *testing.T) {
	chat := &stubChat{}
	env := testutil.NewEnv(t, testutil.WithAI(nil, chat, nil))
	token := env.Signup("chat@example.com", "Passw0rd!").Tokens.AccessToken

	history := make([]gemini.Message, 0, 14)
	for i := 0; i < 14; i++ {
		history = append(history, gemini.Message{Role: "user", Content: fmt.Sprintf("message %d", i)})
	}

	resp := env.Request(http.MethodPost, "/api/chat/message", map[string]any{
		"message": "where should I invest 10k?",
		"history": history,
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var reply struct {
		Reply string `json:"reply"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &reply)
	require.Equal(t, "Consider an index fund for: where should I invest 10k?", reply.Reply)
	// only the most recent turns are forwarded
	require.Len(t, chat.history, 10)
	require.Equal(t, "message 13", chat.history[9].Content)

	empty := env.Request(http.MethodPost, "/api/chat/message", map[string]any{"message": ""}, token)
	require.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestChatHandler_MessageErrors(t *testing.T) {
	disabled := testutil.NewEnv(t)
	token := disabled.Signup("nochat@example.com", "Passw0rd!").Tokens.AccessToken
	resp := disabled.Request(http.MethodPost, "/api/chat/message", map[string]any{"message": "hi"}, token)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	limited := testutil.NewEnv(t, testutil.WithAI(nil, &stubChat{err: ratelimit.ErrRateLimited}, nil))
	token = limited.Signup("busy@example.com", "Passw0rd!").Tokens.AccessToken
	resp = limited.Request(http.MethodPost, "/api/chat/message", map[string]any{"message": "hi"}, token)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestChatHandler_AnalysisAndProfiling(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Signup("analysis@example.com", "Passw0rd!").Tokens.AccessToken

	analysis := env.Request(http.MethodPost, "/api/chat/gemini-analysis", map[string]any{"income": 90000}, token)
	require.Equal(t, http.StatusOK, analysis.Code, analysis.Body.String())
	require.True(t, testutil.DecodeResponse(t, analysis).Meta.Fallback)

	emptyAnalysis := env.Request(http.MethodPost, "/api/chat/gemini-analysis", nil, token)
	require.Equal(t, http.StatusBadRequest, emptyAnalysis.Code)

	profiling := env.Request(http.MethodPost, "/api/chat/profiling", map[string]any{"savings": "20%"}, token)
	require.Equal(t, http.StatusOK, profiling.Code, profiling.Body.String())
	var insights struct {
		RiskProfile string `json:"riskProfile"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, profiling).Data, &insights)
	require.Equal(t, "Moderate", insights.RiskProfile)
}
