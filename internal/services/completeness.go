package services

import (
	"strings"
)

// Document types recognised when scoring profile completeness.
const (
	DocTypeBankStatement     = "bank statement"
	DocTypeSalarySlip        = "salary slip"
	DocTypeInvestmentAccount = "investment account"
	DocTypeCreditCard        = "credit card statement"
	DocTypeTax               = "tax document"
	DocTypeInsurance         = "insurance policy"
)

const (
	questionnaireWeight = 30
	documentWeight      = 0.7
	completeThreshold   = 80
	maxRecommendations  = 5
)

var categoryDocumentTypes = map[string]string{
	"bank_statement": DocTypeBankStatement,
	"salary_slip":    DocTypeSalarySlip,
	"investment":     DocTypeInvestmentAccount,
	"credit_card":    DocTypeCreditCard,
	"tax":            DocTypeTax,
	"insurance":      DocTypeInsurance,
}

// requiredDocuments lists the document types a complete profile needs, with the
// recommendation shown while each is missing.
var requiredDocuments = []struct {
	docType        string
	recommendation string
}{
	{DocTypeBankStatement, "Upload recent bank statements to analyze your spending patterns and cash flow"},
	{DocTypeSalarySlip, "Upload your latest salary slip to accurately assess your income"},
	{DocTypeInvestmentAccount, "Upload investment account statements to include your current portfolio in recommendations"},
	{DocTypeCreditCard, "Upload credit card statements to analyze your spending categories and debt management"},
}

// DocumentTypeForCategory maps an upload category to its document type. Unknown
// categories map to "other".
func DocumentTypeForCategory(category string) string {
	if docType, ok := categoryDocumentTypes[strings.ToLower(strings.TrimSpace(category))]; ok {
		return docType
	}
	return "other"
}

// CompletenessInput is the evidence a completeness score is computed from.
type CompletenessInput struct {
	HasQuestionnaire bool
	// DocumentTypes holds the types of analysed documents.
	DocumentTypes     []string
	UploadedDocuments int
	AnalyzedDocuments int
	// HasFinancialData is set once any document analysis produced financial data.
	HasFinancialData bool
	HasIncome        bool
	HasExpenses      bool
	HasLoans         bool
	HasInvestments   bool
}

// Completeness reports how much of a financial profile has been collected.
type Completeness struct {
	Percentage            int      `json:"overallCompleteness"`
	IsComplete            bool     `json:"complete"`
	HasQuestionnaire      bool     `json:"questionnaire"`
	HasDocumentAnalysis   bool     `json:"documentAnalysis"`
	UploadedDocuments     int      `json:"uploadedDocuments"`
	AnalyzedDocuments     int      `json:"analyzedDocuments"`
	DataCompleteness      float64  `json:"dataCompleteness"`
	AnalyzedDocumentTypes []string `json:"analyzedDocumentTypes"`
	MissingDocumentTypes  []string `json:"missingDocumentTypes"`
	Recommendations       []string `json:"recommendations"`
}

// ComputeCompleteness scores a profile: the questionnaire is worth 30 points and the
// financial facets found in documents up to 70. A profile scoring 80 or more is complete.
func ComputeCompleteness(in CompletenessInput) Completeness {
	result := Completeness{
		HasQuestionnaire:      in.HasQuestionnaire,
		HasDocumentAnalysis:   in.HasFinancialData,
		UploadedDocuments:     in.UploadedDocuments,
		AnalyzedDocuments:     in.AnalyzedDocuments,
		AnalyzedDocumentTypes: []string{},
		MissingDocumentTypes:  []string{},
		Recommendations:       []string{},
	}

	facets := 0
	for _, present := range []bool{in.HasIncome, in.HasExpenses, in.HasLoans, in.HasInvestments} {
		if present {
			facets++
		}
	}
	if in.HasFinancialData {
		result.DataCompleteness = float64(facets) / 4 * 100
	}

	score := 0.0
	if in.HasQuestionnaire {
		score += questionnaireWeight
	}
	score += result.DataCompleteness * documentWeight
	result.Percentage = int(score + 0.5)
	if result.Percentage > 100 {
		result.Percentage = 100
	}
	result.IsComplete = result.Percentage >= completeThreshold

	analyzed := make([]string, 0, len(in.DocumentTypes))
	for _, docType := range in.DocumentTypes {
		if docType = strings.ToLower(strings.TrimSpace(docType)); docType != "" {
			analyzed = append(analyzed, docType)
		}
	}
	result.AnalyzedDocumentTypes = analyzed

	if !in.HasQuestionnaire {
		result.Recommendations = append(result.Recommendations,
			"Complete the initial financial questionnaire to establish your risk profile")
	}
	for _, required := range requiredDocuments {
		if containsType(analyzed, required.docType) {
			continue
		}
		result.MissingDocumentTypes = append(result.MissingDocumentTypes, required.docType)
		result.Recommendations = append(result.Recommendations, required.recommendation)
	}
	if in.HasFinancialData {
		if !in.HasIncome {
			result.Recommendations = append(result.Recommendations, "We need more information about your income sources")
		}
		if !in.HasExpenses {
			result.Recommendations = append(result.Recommendations, "Upload more recent statements to analyze your spending patterns")
		}
		if !in.HasInvestments {
			result.Recommendations = append(result.Recommendations,
				"We need more information about your savings to make appropriate recommendations")
		}
	}

	if len(result.Recommendations) > maxRecommendations {
		result.Recommendations = result.Recommendations[:maxRecommendations]
	}
	return result
}

// containsType matches by substring so that "bank statement (hdfc)" satisfies "bank statement".
func containsType(types []string, want string) bool {
	for _, docType := range types {
		if strings.Contains(docType, want) {
			return true
		}
	}
	return false
}
