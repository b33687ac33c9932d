package handlers

import (
	stdErrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/response"
	"github.com/fi-advisor/fi/pkg/validator"
)

// ruleMessages renders a failed rule for clients. %[1]s is the field and
// %[2]s the rule parameter.
var ruleMessages = map[string]string{
	"required":    "%[1]s is required",
	"email":       "%[1]s must be a valid email address",
	"url":         "%[1]s must be a valid URL",
	"min":         "%[1]s must be at least %[2]s characters",
	"max":         "%[1]s must be at most %[2]s characters",
	"len":         "%[1]s must be exactly %[2]s characters",
	"ticker":      "%[1]s must be an exchange ticker such as RELIANCE.NS",
	"doccategory": "%[1]s must be one of " + strings.Join(validator.DocumentCategories, ", "),
}

// bindAndValidate decodes the JSON body into dest and runs its validate tags.
// On failure it writes a 400 and returns false.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := validator.ValidateStruct(dest); err != nil {
		response.Error(c, errors.NewBadRequest(describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var failures validator.ValidationErrors
	if !stdErrors.As(err, &failures) || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, len(failures))
	for i, failure := range failures {
		field := strings.ToLower(strings.ReplaceAll(failure.Field, "_", " "))
		if field == "" {
			field = "field"
		}
		if format, ok := ruleMessages[failure.Tag]; ok {
			messages[i] = fmt.Sprintf(format, field, failure.Param)
			continue
		}
		rule := failure.Tag
		if failure.Param != "" {
			rule += "=" + failure.Param
		}
		messages[i] = fmt.Sprintf("%s is invalid (%s)", field, rule)
	}
	return strings.Join(messages, "; ")
}

// queryInt reads an integer query parameter, falling back on absence or garbage.
func queryInt(c *gin.Context, key string, fallback int) int {
	if parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key))); err == nil {
		return parsed
	}
	return fallback
}
