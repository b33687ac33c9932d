package app

import (
	"strings"

	"github.com/fi-advisor/fi/internal/auth"
)

const defaultRefreshTokenBytes = 48

// JWTServiceConfig maps auth.jwt onto the access token service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return cfg
}

// SessionServiceConfig maps auth.session onto the refresh session service.
// The session cache is attached by the caller.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	cfg := auth.SessionConfig{
		RefreshTokenTTL: c.Session.RefreshTTL,
		RefreshLength:   c.Session.RefreshLength,
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = auth.DefaultRefreshTokenTTL
	}
	if cfg.RefreshLength <= 0 {
		cfg.RefreshLength = defaultRefreshTokenBytes
	}
	return cfg
}

// GoogleEnabled reports whether ID token sign-in is available.
func (c AuthConfig) GoogleEnabled() bool {
	return strings.TrimSpace(c.Google.ClientID) != ""
}

// GoogleRedirectEnabled reports whether the authorization code flow is
// available too; it needs the client secret for the code exchange.
func (c AuthConfig) GoogleRedirectEnabled() bool {
	return c.GoogleEnabled() && strings.TrimSpace(c.Google.ClientSecret) != ""
}

func (c AuthConfig) GoogleVerifierConfig() auth.GoogleConfig {
	return auth.GoogleConfig{
		ClientID:     strings.TrimSpace(c.Google.ClientID),
		ClientSecret: strings.TrimSpace(c.Google.ClientSecret),
		RedirectURL:  strings.TrimSpace(c.Google.RedirectURL),
	}
}
