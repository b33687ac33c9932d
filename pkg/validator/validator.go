// Package validator wraps go-playground/validator with the rules used by
// request payloads. Field names in failures are the JSON names.
package validator

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// DocumentCategories lists the accepted document categories.
var DocumentCategories = []string{
	"bank_statement",
	"salary_slip",
	"investment",
	"credit_card",
	"tax",
	"insurance",
	"other",
}

// tickerPattern matches exchange tickers such as RELIANCE, RELIANCE.NS, ^NSEI or BRK-B.
var tickerPattern = regexp.MustCompile(`^\^?[A-Za-z0-9&]{1,20}([.-][A-Za-z0-9]{1,5})?$`)

// IsTicker reports whether value looks like an exchange ticker.
func IsTicker(value string) bool {
	return tickerPattern.MatchString(value)
}

// IsDocumentCategory reports whether value names a known category, ignoring case.
func IsDocumentCategory(value string) bool {
	return slices.Contains(DocumentCategories, strings.ToLower(strings.TrimSpace(value)))
}

var customRules = map[string]func(string) bool{
	"ticker":      IsTicker,
	"doccategory": IsDocumentCategory,
}

var engine = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	for tag, rule := range customRules {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		})
	}
	return v
})

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

// ValidationError is one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects every failed rule of a struct.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, failure := range v {
		parts[i] = failure.Field + " failed on " + failure.Tag
		if failure.Param != "" {
			parts[i] += "=" + failure.Param
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct runs the validate tags of s. Rule failures come back as
// ValidationErrors; anything else (such as a non-struct) is returned as is.
func ValidateStruct(s any) error {
	err := engine().Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failures := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		failures[i] = ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return failures
}
