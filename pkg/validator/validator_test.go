package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name,omitempty" validate:"max=5"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	require.NoError(t, ValidateStruct(signup{Email: "ana@example.com", Password: "Passw0rd!"}))

	err := ValidateStruct(signup{Email: "nope", Password: "123", Name: "Anastasia"})
	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	assert.Equal(t, ValidationErrors{
		{Field: "email", Tag: "email"},
		{Field: "password", Tag: "min", Param: "6"},
		{Field: "name", Tag: "max", Param: "5"},
	}, failures)
	assert.Equal(t, "email failed on email; password failed on min=6; name failed on max=5", err.Error())
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	err := ValidateStruct("not a struct")
	require.Error(t, err)
	_, isFieldFailure := err.(ValidationErrors)
	assert.False(t, isFieldFailure)
}

func TestTickerRule(t *testing.T) {
	type quote struct {
		Symbol string `json:"symbol" validate:"required,ticker"`
	}

	for _, symbol := range []string{"RELIANCE", "RELIANCE.NS", "^NSEI", "BRK-B", "M&M.NS"} {
		assert.NoError(t, ValidateStruct(quote{Symbol: symbol}), symbol)
		assert.True(t, IsTicker(symbol), symbol)
	}
	for _, symbol := range []string{"RELI ANCE", "../etc", "A.B.C"} {
		assert.Error(t, ValidateStruct(quote{Symbol: symbol}), symbol)
	}
}

func TestDocumentCategoryRule(t *testing.T) {
	type upload struct {
		Category string `json:"category" validate:"omitempty,doccategory"`
	}

	assert.NoError(t, ValidateStruct(upload{Category: " Bank_Statement "}))
	assert.NoError(t, ValidateStruct(upload{}))
	assert.Error(t, ValidateStruct(upload{Category: "lottery"}))
	assert.False(t, IsDocumentCategory(""))
}
