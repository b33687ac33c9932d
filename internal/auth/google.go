package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OpenID Connect issuer for Google accounts.
const GoogleIssuer = "https://accounts.google.com"

var (
	// ErrGoogleDisabled is returned when Google sign-in is not configured.
	ErrGoogleDisabled = errors.New("google: sign-in not configured")
	// ErrGoogleEmailUnverified is returned for accounts without a verified e-mail.
	ErrGoogleEmailUnverified = errors.New("google: email not verified")
)

// GoogleConfig configures Google sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Issuer overrides the Google issuer, used by tests.
	Issuer string
	// Endpoint skips provider discovery for the OAuth endpoints when set.
	Endpoint oauth2.Endpoint
}

// GoogleIdentity is the verified identity behind a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier verifies Google ID tokens and exchanges authorization codes.
// Provider discovery happens on first use.
type GoogleVerifier struct {
	cfg GoogleConfig

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

// NewGoogleVerifier returns a verifier for cfg.
func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	if cfg.Issuer == "" {
		cfg.Issuer = GoogleIssuer
	}
	return &GoogleVerifier{cfg: cfg}
}

// NewGoogleVerifierWithKeys builds a verifier that checks signatures against
// a fixed key set instead of discovering the provider.
func NewGoogleVerifierWithKeys(cfg GoogleConfig, keys oidc.KeySet) *GoogleVerifier {
	g := NewGoogleVerifier(cfg)
	g.verifier = oidc.NewVerifier(g.cfg.Issuer, keys, &oidc.Config{ClientID: cfg.ClientID})
	return g
}

// Enabled reports whether a client id is configured.
func (g *GoogleVerifier) Enabled() bool {
	return g != nil && strings.TrimSpace(g.cfg.ClientID) != ""
}

// VerifyIDToken validates raw and returns the identity it asserts.
func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, raw string) (GoogleIdentity, error) {
	if !g.Enabled() {
		return GoogleIdentity{}, ErrGoogleDisabled
	}
	verifier, _, err := g.init(ctx)
	if err != nil {
		return GoogleIdentity{}, err
	}

	token, err := verifier.Verify(ctx, raw)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("google: verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := token.Claims(&claims); err != nil {
		return GoogleIdentity{}, fmt.Errorf("google: decode claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return GoogleIdentity{}, ErrGoogleEmailUnverified
	}

	return GoogleIdentity{
		Subject:       token.Subject,
		Email:         strings.ToLower(claims.Email),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// AuthCodeURL builds the consent screen URL for the redirect flow. The challenge is
// derived from verifier, which must be presented again to ExchangeCode.
func (g *GoogleVerifier) AuthCodeURL(ctx context.Context, state, verifier string) (string, error) {
	if !g.Enabled() {
		return "", ErrGoogleDisabled
	}
	_, oauthCfg, err := g.init(ctx)
	if err != nil {
		return "", err
	}
	if oauthCfg == nil {
		return "", errors.New("google: redirect sign-in requires a client secret")
	}
	return oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)), nil
}

// ExchangeCode redeems an authorization code and verifies the returned ID token.
// verifier may be empty for codes obtained without PKCE.
func (g *GoogleVerifier) ExchangeCode(ctx context.Context, code, verifier string) (GoogleIdentity, error) {
	if !g.Enabled() {
		return GoogleIdentity{}, ErrGoogleDisabled
	}
	_, oauthCfg, err := g.init(ctx)
	if err != nil {
		return GoogleIdentity{}, err
	}
	if oauthCfg == nil || g.cfg.ClientSecret == "" {
		return GoogleIdentity{}, fmt.Errorf("google: code exchange requires a client secret")
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := oauthCfg.Exchange(ctx, code, opts...)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("google: exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return GoogleIdentity{}, errors.New("google: token response has no id_token")
	}
	return g.VerifyIDToken(ctx, rawIDToken)
}

func (g *GoogleVerifier) init(ctx context.Context) (*oidc.IDTokenVerifier, *oauth2.Config, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.verifier != nil && (g.oauth != nil || g.cfg.ClientSecret == "") {
		return g.verifier, g.oauth, nil
	}
	if g.verifier != nil && g.cfg.Endpoint.AuthURL != "" {
		g.oauth = g.oauthConfig(g.cfg.Endpoint)
		return g.verifier, g.oauth, nil
	}

	provider, err := oidc.NewProvider(ctx, g.cfg.Issuer)
	if err != nil {
		if g.verifier != nil {
			return g.verifier, nil, nil
		}
		return nil, nil, fmt.Errorf("google: discover provider: %w", err)
	}

	if g.verifier == nil {
		g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	}
	if g.cfg.ClientSecret != "" {
		endpoint := g.cfg.Endpoint
		if endpoint.AuthURL == "" {
			endpoint = provider.Endpoint()
		}
		g.oauth = g.oauthConfig(endpoint)
	}
	return g.verifier, g.oauth, nil
}

func (g *GoogleVerifier) oauthConfig(endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  g.cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
}
