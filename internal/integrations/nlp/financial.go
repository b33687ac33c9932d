package nlp

import (
	"regexp"
	"strings"
)

// Holding is a typed amount such as a loan or an investment.
type Holding struct {
	Type   string `json:"type"`
	Amount string `json:"amount,omitempty"`
}

// FinancialData is the structured summary extracted from document entities.
type FinancialData struct {
	Income      string    `json:"income,omitempty"`
	Expenses    string    `json:"expenses,omitempty"`
	Loans       []Holding `json:"loans"`
	Investments []Holding `json:"investments"`
}

// ExtractFinancialData classifies entities by keyword. The amount comes from the
// entity's "value" or "amount" metadata. Later income and expense entities
// overwrite earlier ones.
func ExtractFinancialData(entities []Entity) FinancialData {
	data := FinancialData{Loans: []Holding{}, Investments: []Holding{}}

	for _, entity := range entities {
		name := strings.ToLower(entity.Name)
		amount := entity.Metadata["value"]
		if amount == "" {
			amount = entity.Metadata["amount"]
		}

		switch {
		case containsAny(name, "salary", "income"):
			data.Income = amount
		case containsAny(name, "emi", "loan", "mortgage"):
			data.Loans = append(data.Loans, Holding{Type: name, Amount: amount})
		case containsAny(name, "mutual fund", "stocks", "real estate"):
			data.Investments = append(data.Investments, Holding{Type: name, Amount: amount})
		case containsAny(name, "credit card", "expense"):
			data.Expenses = amount
		}
	}
	return data
}

var (
	keywordPattern = regexp.MustCompile(`(?i)\b(salary|income|emi|loan|mortgage|mutual funds?|stocks|real estate|credit card|expenses?)\b`)
	amountPattern  = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

// KeywordEntities scans text line by line for financial keywords and pairs each
// with the first amount on the same line. It stands in for entity analysis when
// the language service is unavailable.
func KeywordEntities(text string) []Entity {
	var entities []Entity
	for _, line := range strings.Split(text, "\n") {
		keyword := keywordPattern.FindString(line)
		if keyword == "" {
			continue
		}
		entity := Entity{Name: strings.ToLower(keyword), Type: "OTHER"}
		rest := line[strings.Index(strings.ToLower(line), strings.ToLower(keyword))+len(keyword):]
		if match := amountPattern.FindStringSubmatch(rest); match != nil {
			entity.Metadata = map[string]string{"amount": strings.ReplaceAll(match[1], ",", "")}
		}
		entities = append(entities, entity)
	}
	return entities
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
