package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type risk struct {
	RiskScore int `json:"riskScore"`
}

func TestDecodeJSONObject(t *testing.T) {
	cases := map[string]string{
		"direct":   `{"riskScore":7}`,
		"fenced":   "Here you go:\n```json\n{\"riskScore\":7}\n```\nThanks",
		"bare":     "```\n{\"riskScore\":7}\n```",
		"embedded": `The profile is {"riskScore":7} overall.`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			var out risk
			require.True(t, DecodeJSONObject(text, &out))
			require.Equal(t, 7, out.RiskScore)
		})
	}
}

func TestDecodeJSONObjectFailure(t *testing.T) {
	var out risk
	require.False(t, DecodeJSONObject("", &out))
	require.False(t, DecodeJSONObject("no json here", &out))
	require.False(t, DecodeJSONObject("{broken", &out))
}
