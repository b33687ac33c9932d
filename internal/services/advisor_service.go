package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/integrations/gemini"
	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/internal/ratelimit"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/metrics"
	"github.com/fi-advisor/fi/pkg/textutil"
)

const (
	portfolioMaxTokens = 1000
	chatHistoryLimit   = 10
	portfolioNewsQuery = "global and Indian financial markets"
	defaultHistorySize = 20
)

// TextGenerator produces a text completion for a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Conversationalist continues a chat conversation.
type Conversationalist interface {
	Chat(ctx context.Context, system string, history []gemini.Message, message string) (string, error)
}

// JSONCompleter returns a JSON object completion for a prompt.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RiskAssessment is the outcome of a risk profiling run.
type RiskAssessment struct {
	RiskScore           int                `json:"riskScore"`
	RiskProfile         string             `json:"riskProfile"`
	PortfolioAllocation map[string]float64 `json:"portfolioAllocation"`
	Insights            []string           `json:"insights"`
	Recommendations     []string           `json:"recommendations"`
}

// Portfolio is a generated investment portfolio.
type Portfolio struct {
	Portfolio map[string]any `json:"portfolio"`
	Summary   string         `json:"summary"`
	// MonthlyAmounts splits the user's monthly investable amount across allocations.
	MonthlyAmounts map[string]string `json:"monthlyAmounts,omitempty"`
}

// SWOT is a strengths, weaknesses, opportunities and threats analysis.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// ProfileInsights classifies a financial profile.
type ProfileInsights struct {
	RiskProfile        string   `json:"riskProfile"`
	FinancialInsights  []string `json:"financialInsights"`
	RecommendedActions []string `json:"recommendedActions"`
}

// RecommendationView is a stored recommendation.
type RecommendationView struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	Fallback  bool           `json:"fallback"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AdvisorDeps wires an AdvisorService. AI clients may be nil, in which case the
// default payloads are returned.
type AdvisorDeps struct {
	DB        *gorm.DB
	Generator TextGenerator
	Chat      Conversationalist
	Completer JSONCompleter
	Users     *UserService
	Documents *DocumentService
	Market    *MarketService
}

// AdvisorService produces AI-backed financial recommendations.
type AdvisorService struct {
	deps AdvisorDeps
	log  *zap.Logger
}

// NewAdvisorService constructs an AdvisorService.
func NewAdvisorService(deps AdvisorDeps) (*AdvisorService, error) {
	if deps.DB == nil {
		return nil, errors.New("advisor service: db is required")
	}
	if deps.Users == nil {
		return nil, errors.New("advisor service: user service is required")
	}
	return &AdvisorService{deps: deps, log: logger.WithModule("advisor")}, nil
}

// DefaultRiskAssessment is returned when the risk profile cannot be generated.
func DefaultRiskAssessment() RiskAssessment {
	return RiskAssessment{
		RiskScore:           5,
		RiskProfile:         "Moderate (Default)",
		PortfolioAllocation: map[string]float64{"stocks": 60, "bonds": 30, "cash": 10},
		Insights: []string{
			"Based on the information provided, a balanced approach is recommended",
			"Consider building an emergency fund first before more aggressive investments",
			"Regular investment contributions are important for long-term growth",
		},
		Recommendations: []string{
			"Start with a 60/30/10 portfolio allocation (stocks/bonds/cash)",
			"Set up automatic monthly contributions to your investment accounts",
			"Review and rebalance your portfolio quarterly",
		},
	}
}

// RiskAssessment profiles the user's questionnaire answers and records the result on
// the profile. Stored answers are used when responses is empty. The boolean reports
// whether the default assessment was returned.
func (s *AdvisorService) RiskAssessment(ctx context.Context, userID string, responses map[string]any) (RiskAssessment, bool, error) {
	ctx = ensureContext(ctx)

	if len(responses) == 0 {
		stored, err := s.deps.Users.Responses(ctx, userID)
		if err != nil {
			return RiskAssessment{}, false, err
		}
		responses = stored
	}
	if len(responses) == 0 {
		return RiskAssessment{}, false, apperrors.NewBadRequest("questionnaire responses are required")
	}

	assessment, fallback, err := s.assessRisk(ctx, "risk_assessment", responses)
	if err != nil {
		return RiskAssessment{}, false, err
	}

	if err := s.deps.Users.SaveRiskAssessment(ctx, userID, assessment.RiskScore, assessment.RiskProfile); err != nil {
		s.log.Warn("failed to store risk assessment", zap.String("user_id", userID), zap.Error(err))
	}
	s.record(ctx, userID, models.RecommendationRisk, assessment, fallback)
	return assessment, fallback, nil
}

// Analyze runs risk profiling over arbitrary client data without touching the profile.
func (s *AdvisorService) Analyze(ctx context.Context, data map[string]any) (RiskAssessment, bool, error) {
	if len(data) == 0 {
		return RiskAssessment{}, false, apperrors.NewBadRequest("no data provided for analysis")
	}
	return s.assessRisk(ensureContext(ctx), "gemini_analysis", data)
}

func (s *AdvisorService) assessRisk(ctx context.Context, operation string, responses map[string]any) (RiskAssessment, bool, error) {
	if s.deps.Generator == nil {
		return s.riskFallback(operation, nil), true, nil
	}

	encoded, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return RiskAssessment{}, false, apperrors.NewBadRequest("responses must be JSON encodable")
	}

	prompt := fmt.Sprintf(riskPrompt, encoded)
	text, err := s.deps.Generator.Generate(ctx, prompt, true)
	if err != nil {
		if limited := rateLimited(err); limited != nil {
			return RiskAssessment{}, false, limited
		}
		return s.riskFallback(operation, err), true, nil
	}

	var raw struct {
		RiskScore           float64            `json:"riskScore"`
		RiskProfile         string             `json:"riskProfile"`
		PortfolioAllocation map[string]float64 `json:"portfolioAllocation"`
		Insights            []string           `json:"insights"`
		Recommendations     []string           `json:"recommendations"`
	}
	if !textutil.DecodeJSONObject(text, &raw) || strings.TrimSpace(raw.RiskProfile) == "" {
		return s.riskFallback(operation, errors.New("unparseable model response")), true, nil
	}

	score := int(math.Round(raw.RiskScore))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	assessment := RiskAssessment{
		RiskScore:           score,
		RiskProfile:         strings.TrimSpace(raw.RiskProfile),
		PortfolioAllocation: raw.PortfolioAllocation,
		Insights:            nonNilStrings(raw.Insights),
		Recommendations:     nonNilStrings(raw.Recommendations),
	}
	if assessment.PortfolioAllocation == nil {
		assessment.PortfolioAllocation = map[string]float64{}
	}
	return assessment, false, nil
}

func (s *AdvisorService) riskFallback(operation string, cause error) RiskAssessment {
	s.fallback(operation, cause)
	return DefaultRiskAssessment()
}

// PortfolioInput carries the data a portfolio is generated from. Empty fields are
// filled from the stored profile and documents.
type PortfolioInput struct {
	Responses map[string]any
	Documents []string
}

// GeneratePortfolio builds a portfolio from the user's risk profile, document
// insights, recent news and market data.
func (s *AdvisorService) GeneratePortfolio(ctx context.Context, userID string, input PortfolioInput) (Portfolio, bool, error) {
	ctx = ensureContext(ctx)

	user, err := s.deps.Users.GetProfile(ctx, userID)
	if err != nil {
		return Portfolio{}, false, err
	}

	responses := input.Responses
	if len(responses) == 0 {
		responses = jsonObject(user.FinancialProfile.Responses)
	}

	if s.deps.Completer == nil {
		result := s.portfolioFallback(nil)
		s.record(ctx, userID, models.RecommendationPortfolio, result, true)
		return result, true, nil
	}

	risk := DefaultRiskAssessment()
	if len(responses) > 0 {
		assessed, _, err := s.assessRisk(ctx, "portfolio_risk", responses)
		if err != nil {
			return Portfolio{}, false, err
		}
		risk = assessed
	}

	insights := append([]string{}, input.Documents...)
	if s.deps.Documents != nil {
		analyses, err := s.deps.Documents.AnalysesForUser(ctx, userID)
		if err == nil {
			for _, analysis := range analyses {
				insights = append(insights, analysis.KeyPoints...)
			}
		}
	}

	var newsContext, marketContext any = []any{}, map[string]any{}
	if s.deps.Market != nil {
		if articles, _, err := s.deps.Market.News(ctx, portfolioNewsQuery, 5); err == nil {
			newsContext = articles
		}
		if overview, _, err := s.deps.Market.Overview(ctx); err == nil {
			marketContext = overview
		}
	}

	prompt := fmt.Sprintf(portfolioPrompt,
		mustJSON(risk), mustJSON(insights), mustJSON(newsContext), mustJSON(marketContext))
	text, err := s.deps.Completer.CompleteJSON(ctx, prompt, portfolioMaxTokens)
	if err != nil {
		if limited := rateLimited(err); limited != nil {
			return Portfolio{}, false, limited
		}
		result := s.portfolioFallback(err)
		s.record(ctx, userID, models.RecommendationPortfolio, result, true)
		return result, true, nil
	}

	var result Portfolio
	if !textutil.DecodeJSONObject(text, &result) || result.Portfolio == nil {
		result = s.portfolioFallback(errors.New("unparseable model response"))
		s.record(ctx, userID, models.RecommendationPortfolio, result, true)
		return result, true, nil
	}

	result.MonthlyAmounts = monthlyAmounts(result.Portfolio, user.FinancialProfile)
	s.record(ctx, userID, models.RecommendationPortfolio, result, false)
	return result, false, nil
}

func (s *AdvisorService) portfolioFallback(cause error) Portfolio {
	s.fallback("portfolio", cause)
	return Portfolio{Portfolio: map[string]any{}, Summary: "Portfolio generation failed."}
}

// SWOT analyses a portfolio.
func (s *AdvisorService) SWOT(ctx context.Context, userID string, portfolio any) (SWOT, bool, error) {
	ctx = ensureContext(ctx)
	if isEmptyPayload(portfolio) {
		return SWOT{}, false, apperrors.NewBadRequest("portfolio data is required")
	}

	empty := SWOT{Strengths: []string{}, Weaknesses: []string{}, Opportunities: []string{}, Threats: []string{}}
	if s.deps.Completer == nil {
		s.fallback("swot", nil)
		s.record(ctx, userID, models.RecommendationSWOT, empty, true)
		return empty, true, nil
	}

	data, ok := portfolio.(string)
	if !ok {
		data = mustJSON(portfolio)
	}
	text, err := s.deps.Completer.CompleteJSON(ctx, fmt.Sprintf(swotPrompt, data), 0)
	if err != nil {
		if limited := rateLimited(err); limited != nil {
			return SWOT{}, false, limited
		}
		s.fallback("swot", err)
		s.record(ctx, userID, models.RecommendationSWOT, empty, true)
		return empty, true, nil
	}

	var result SWOT
	if !textutil.DecodeJSONObject(text, &result) {
		s.fallback("swot", errors.New("unparseable model response"))
		s.record(ctx, userID, models.RecommendationSWOT, empty, true)
		return empty, true, nil
	}
	result.Strengths = nonNilStrings(result.Strengths)
	result.Weaknesses = nonNilStrings(result.Weaknesses)
	result.Opportunities = nonNilStrings(result.Opportunities)
	result.Threats = nonNilStrings(result.Threats)

	s.record(ctx, userID, models.RecommendationSWOT, result, false)
	return result, false, nil
}

// ProfileInsights classifies the user's financial data and suggests actions.
func (s *AdvisorService) ProfileInsights(ctx context.Context, userID string, data map[string]any) (ProfileInsights, bool, error) {
	ctx = ensureContext(ctx)
	if len(data) == 0 {
		return ProfileInsights{}, false, apperrors.NewBadRequest("user data is required")
	}

	fallback := ProfileInsights{RiskProfile: "Moderate", FinancialInsights: []string{}, RecommendedActions: []string{}}
	if s.deps.Completer == nil {
		s.fallback("profiling", nil)
		s.record(ctx, userID, models.RecommendationProfile, fallback, true)
		return fallback, true, nil
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return ProfileInsights{}, false, apperrors.NewBadRequest("user data must be JSON encodable")
	}
	text, err := s.deps.Completer.CompleteJSON(ctx, fmt.Sprintf(profilingPrompt, encoded), 0)
	if err != nil {
		if limited := rateLimited(err); limited != nil {
			return ProfileInsights{}, false, limited
		}
		s.fallback("profiling", err)
		s.record(ctx, userID, models.RecommendationProfile, fallback, true)
		return fallback, true, nil
	}

	var result ProfileInsights
	if !textutil.DecodeJSONObject(text, &result) || result.RiskProfile == "" {
		s.fallback("profiling", errors.New("unparseable model response"))
		s.record(ctx, userID, models.RecommendationProfile, fallback, true)
		return fallback, true, nil
	}
	result.FinancialInsights = nonNilStrings(result.FinancialInsights)
	result.RecommendedActions = nonNilStrings(result.RecommendedActions)

	s.record(ctx, userID, models.RecommendationProfile, result, false)
	return result, false, nil
}

// Chat answers a user message in the context of the stored financial profile.
// Only the last ten history turns are sent and markdown is stripped from the reply.
func (s *AdvisorService) Chat(ctx context.Context, userID, message string, history []gemini.Message) (string, error) {
	ctx = ensureContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.NewBadRequest("message is required")
	}
	if s.deps.Chat == nil {
		return "", apperrors.ErrServiceDisabled
	}

	responses, err := s.deps.Users.Responses(ctx, userID)
	if err != nil {
		return "", err
	}

	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}

	reply, err := s.deps.Chat.Chat(ctx, chatContext(responses), history, message)
	if err != nil {
		if limited := rateLimited(err); limited != nil {
			return "", limited
		}
		return "", apperrors.NewUpstream("gemini", err)
	}
	return textutil.StripMarkdown(reply), nil
}

// Completeness scores how much financial data the user has provided.
func (s *AdvisorService) Completeness(ctx context.Context, userID string) (Completeness, error) {
	ctx = ensureContext(ctx)

	user, err := s.deps.Users.GetProfile(ctx, userID)
	if err != nil {
		return Completeness{}, err
	}

	input := CompletenessInput{HasQuestionnaire: user.FinancialProfile.HasQuestionnaire()}
	if s.deps.Documents != nil {
		docs, err := s.deps.Documents.List(ctx, userID)
		if err != nil {
			return Completeness{}, err
		}
		input.UploadedDocuments = len(docs)

		analyses, err := s.deps.Documents.AnalysesForUser(ctx, userID)
		if err != nil {
			return Completeness{}, err
		}
		analyzed := map[string]struct{}{}
		for _, analysis := range analyses {
			analyzed[analysis.DocumentID] = struct{}{}
			input.DocumentTypes = append(input.DocumentTypes, analysis.DocumentType)
			applyFinancialFacets(&input, analysis.Payload["financialData"])
		}
		input.AnalyzedDocuments = len(analyzed)
	}

	return ComputeCompleteness(input), nil
}

// History lists stored recommendations, newest first, optionally filtered by kind.
func (s *AdvisorService) History(ctx context.Context, userID, kind string, limit int) ([]RecommendationView, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 100 {
		limit = defaultHistorySize
	}

	query := s.deps.DB.WithContext(ctx).Where("user_id = ?", userID)
	if kind = strings.TrimSpace(kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var rows []models.Recommendation
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("advisor service: history: %w", err)
	}

	views := make([]RecommendationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, RecommendationView{
			ID:        row.ID,
			Kind:      row.Kind,
			Payload:   jsonObject(row.Payload),
			Fallback:  row.Fallback,
			CreatedAt: row.CreatedAt,
		})
	}
	return views, nil
}

func (s *AdvisorService) record(ctx context.Context, userID, kind string, payload any, fallback bool) {
	raw, err := toJSON(payload)
	if err != nil {
		s.log.Warn("failed to encode recommendation", zap.String("kind", kind), zap.Error(err))
		return
	}
	row := models.Recommendation{UserID: userID, Kind: kind, Payload: raw, Fallback: fallback}
	if err := s.deps.DB.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("failed to store recommendation", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *AdvisorService) fallback(operation string, cause error) {
	metrics.AdvisorFallbacks.WithLabelValues(operation).Inc()
	if cause != nil {
		s.log.Warn("ai request failed, returning default payload",
			zap.String("operation", operation), zap.Error(cause))
	}
}

// chatContext describes the user to the model from questionnaire answers q2, q3 and q6.
func chatContext(responses map[string]any) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor assistant for an Indian user.")
	if len(responses) > 0 {
		b.WriteString(" Based on the user's financial profile, they are ")
		if risk := stringValue(responses, "q3"); risk != "" {
			fmt.Fprintf(&b, "%s comfortable with high-risk investments. ", risk)
		}
		if goal := stringValue(responses, "q2"); goal != "" {
			fmt.Fprintf(&b, "Their primary financial goal is %s. ", goal)
		}
		if savings := stringValue(responses, "q6"); savings != "" {
			fmt.Fprintf(&b, "They save %s of their income monthly. ", savings)
		}
	}
	b.WriteString(" Provide helpful answers about Indian financial markets, investments, or personal finance" +
		" as plain text without markdown symbols, headings, or bullet points.")
	return b.String()
}

// monthlyAmounts splits the monthly investable amount across the top-level
// allocations of a portfolio. Allocation values look like "40%".
func monthlyAmounts(portfolio map[string]any, profile *models.FinancialProfile) map[string]string {
	if profile == nil || strings.TrimSpace(profile.MonthlyInvestable) == "" {
		return nil
	}
	total, err := decimal.NewFromString(profile.MonthlyInvestable)
	if err != nil || !total.IsPositive() {
		return nil
	}
	currency := money.GetCurrency(firstNonEmpty(profile.Currency, defaultCurrency))
	if currency == nil {
		return nil
	}

	var (
		names  []string
		ratios []int
	)
	for name, value := range portfolio {
		section, ok := value.(map[string]any)
		if !ok {
			continue
		}
		pct, ok := parsePercent(section["allocation"])
		if !ok || pct <= 0 {
			continue
		}
		names = append(names, name)
		ratios = append(ratios, pct)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Sort(byName{names, ratios})

	minor := total.Shift(int32(currency.Fraction)).Round(0).IntPart()
	parts, err := money.New(minor, currency.Code).Allocate(ratios...)
	if err != nil {
		return nil
	}
	amounts := make(map[string]string, len(names))
	for i, name := range names {
		amounts[name] = parts[i].Display()
	}
	return amounts
}

type byName struct {
	names  []string
	ratios []int
}

func (b byName) Len() int           { return len(b.names) }
func (b byName) Less(i, j int) bool { return b.names[i] < b.names[j] }
func (b byName) Swap(i, j int) {
	b.names[i], b.names[j] = b.names[j], b.names[i]
	b.ratios[i], b.ratios[j] = b.ratios[j], b.ratios[i]
}

func parsePercent(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(math.Round(v)), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%")))
		if err != nil {
			return 0, false
		}
		return int(d.Round(0).IntPart()), true
	default:
		return 0, false
	}
}

func applyFinancialFacets(input *CompletenessInput, raw any) {
	data, ok := raw.(map[string]any)
	if !ok {
		if raw == nil {
			return
		}
		// in-memory analyses keep typed values
		encoded, err := json.Marshal(raw)
		if err != nil || json.Unmarshal(encoded, &data) != nil || data == nil {
			return
		}
	}
	input.HasFinancialData = true
	if stringValue(data, "income") != "" {
		input.HasIncome = true
	}
	if stringValue(data, "expenses") != "" {
		input.HasExpenses = true
	}
	if items, ok := data["loans"].([]any); ok && len(items) > 0 {
		input.HasLoans = true
	}
	if items, ok := data["investments"].([]any); ok && len(items) > 0 {
		input.HasInvestments = true
	}
}

func rateLimited(err error) error {
	if errors.Is(err, ratelimit.ErrRateLimited) {
		return apperrors.ErrRateLimit.WithInternal(err)
	}
	return nil
}

func isEmptyPayload(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func mustJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(data)
}

const riskPrompt = `You are a financial expert API. Based on the user's answers to the financial questionnaire,
assess their risk profile and provide personalized financial recommendations.

IMPORTANT: Your entire response must be valid JSON only, with no additional text, markdown, or explanations.

Return text with exactly this structure:
{
  "riskScore": <number between 1-10>,
  "riskProfile": <string describing risk tolerance>,
  "portfolioAllocation": {
    "stocks": <number percentage>,
    "bonds": <number percentage>,
    "cash": <number percentage>
  },
  "insights": [<string insight1>, <string insight2>, <string insight3>],
  "recommendations": [<string recommendation1>, <string recommendation2>, <string recommendation3>]
}

User's questionnaire responses:
%s`

const portfolioPrompt = `User Risk Profile: %s
Financial Document Analysis: %s
Recent Market News: %s
Stock Market Data: %s

Based on this information, generate an optimized investment portfolio.
The response format should be structured as follows:
{
  "portfolio": {
    "fixedDeposits": { "allocation": "...%%", "recommendations": ["...", "..."] },
    "stocks": { "allocation": "...%%", "recommendations": [{ "name": "...", "sector": "...", "rationale": "..." }] },
    "mutualFunds": { "allocation": "...%%", "types": [{ "type": "...", "recommendations": ["...", "..."] }] },
    "insurance": { "health": "...%%", "life": "...%%", "term": "...%%" }
  },
  "summary": "Provide an investment summary here"
}`

const swotPrompt = `Perform a SWOT analysis on the following portfolio.

Portfolio Data:
%s

Respond in JSON format:
{
  "strengths": ["...", "..."],
  "weaknesses": ["...", "..."],
  "opportunities": ["...", "..."],
  "threats": ["...", "..."]
}`

const profilingPrompt = `Analyze the following user's financial profile and provide:
1. Risk Profile Classification (Conservative, Moderate, Aggressive)
2. Three Key Financial Insights about their investment behavior
3. Three Recommended Actions to optimize their financial strategy

User Financial Data:
%s

Provide output in JSON format:
{
  "riskProfile": "<Conservative | Moderate | Aggressive>",
  "financialInsights": ["...", "...", "..."],
  "recommendedActions": ["...", "...", "..."]
}`
