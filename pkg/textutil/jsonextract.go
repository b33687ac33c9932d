package textutil

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// DecodeJSONObject decodes a JSON object from model output into out. It tries
// the whole text, then the first fenced code block, then the span from the first
// '{' to the last '}'. It reports whether any attempt succeeded.
func DecodeJSONObject(text string, out any) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if json.Unmarshal([]byte(text), out) == nil {
		return true
	}
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		if json.Unmarshal([]byte(match[1]), out) == nil {
			return true
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if json.Unmarshal([]byte(text[start:end+1]), out) == nil {
			return true
		}
	}
	return false
}
