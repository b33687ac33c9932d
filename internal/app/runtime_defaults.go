package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fi-advisor/fi/pkg/crypto"
)

// runtimeSecret is a secret that may be minted at start-up when missing.
type runtimeSecret struct {
	key   string
	bytes int
	field func(*Config) *string
}

// Only secrets whose loss merely logs users out belong here. The storage
// encryption key must never be minted: a new key per restart strands files.
var runtimeSecrets = []runtimeSecret{
	{key: "auth.jwt.secret", bytes: 48, field: func(c *Config) *string { return &c.Auth.JWT.Secret }},
}

// ApplyRuntimeDefaults fills unset runtime secrets with random values and
// returns the keys it generated so the caller can warn without logging values.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var generated []string
	for _, secret := range runtimeSecrets {
		target := secret.field(cfg)
		if strings.TrimSpace(*target) != "" {
			continue
		}
		value, err := crypto.GenerateToken(secret.bytes)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", secret.key, err)
		}
		*target = value
		generated = append(generated, secret.key)
	}
	return generated, nil
}
