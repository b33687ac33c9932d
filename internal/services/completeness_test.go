package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeCompletenessEmptyProfile(t *testing.T) {
	got := ComputeCompleteness(CompletenessInput{})

	require.Zero(t, got.Percentage)
	require.False(t, got.IsComplete)
	require.Equal(t, []string{
		DocTypeBankStatement, DocTypeSalarySlip, DocTypeInvestmentAccount, DocTypeCreditCard,
	}, got.MissingDocumentTypes)
	require.Len(t, got.Recommendations, 5)
	require.Equal(t, "Complete the initial financial questionnaire to establish your risk profile", got.Recommendations[0])
}

func TestComputeCompletenessQuestionnaireOnly(t *testing.T) {
	got := ComputeCompleteness(CompletenessInput{HasQuestionnaire: true})

	require.Equal(t, 30, got.Percentage)
	require.False(t, got.IsComplete)
	require.Len(t, got.Recommendations, 4)
}

func TestComputeCompletenessFullProfile(t *testing.T) {
	got := ComputeCompleteness(CompletenessInput{
		HasQuestionnaire:  true,
		DocumentTypes:     []string{"Bank Statement", "salary slip", "investment account", "credit card statement"},
		UploadedDocuments: 4,
		AnalyzedDocuments: 4,
		HasFinancialData:  true,
		HasIncome:         true,
		HasExpenses:       true,
		HasLoans:          true,
		HasInvestments:    true,
	})

	require.Equal(t, 100, got.Percentage)
	require.True(t, got.IsComplete)
	require.Empty(t, got.MissingDocumentTypes)
	require.Empty(t, got.Recommendations)
	require.Equal(t, 4, got.AnalyzedDocuments)
}

func TestComputeCompletenessPartialData(t *testing.T) {
	got := ComputeCompleteness(CompletenessInput{
		HasQuestionnaire: true,
		DocumentTypes:    []string{"salary slip"},
		HasFinancialData: true,
		HasIncome:        true,
		HasLoans:         true,
	})

	// 30 + 50% of 70
	require.Equal(t, 65, got.Percentage)
	require.False(t, got.IsComplete)
	require.NotContains(t, got.MissingDocumentTypes, DocTypeSalarySlip)
	require.LessOrEqual(t, len(got.Recommendations), 5)
}

func TestComputeCompletenessThreshold(t *testing.T) {
	got := ComputeCompleteness(CompletenessInput{
		HasQuestionnaire: true,
		HasFinancialData: true,
		HasIncome:        true,
		HasExpenses:      true,
		HasInvestments:   true,
	})

	// 30 + 75% of 70 = 82.5
	require.Equal(t, 83, got.Percentage)
	require.True(t, got.IsComplete)
}

func TestDocumentTypeForCategory(t *testing.T) {
	require.Equal(t, DocTypeBankStatement, DocumentTypeForCategory("bank_statement"))
	require.Equal(t, DocTypeCreditCard, DocumentTypeForCategory(" Credit_Card "))
	require.Equal(t, DocTypeInsurance, DocumentTypeForCategory("insurance"))
	require.Equal(t, "other", DocumentTypeForCategory("receipts"))
}
