package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fi-advisor/fi/pkg/crypto"
)

const defaultStateTTL = 10 * time.Minute

var (
	// ErrStateInvalid is returned for a state parameter that was not issued by this server.
	ErrStateInvalid = errors.New("google state: invalid")
	// ErrStateExpired is returned when the consent screen took longer than the state lifetime.
	ErrStateExpired = errors.New("google state: expired")
)

// GoogleState travels through the Google consent screen and comes back on the callback.
// It carries the PKCE verifier so the server keeps no per-login storage.
type GoogleState struct {
	ReturnURL string    `json:"r,omitempty"`
	Verifier  string    `json:"v"`
	IssuedAt  time.Time `json:"iat"`
}

// StateCodec seals GoogleState values with a key derived from a server secret.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateCodec derives an AES-256 key from secret.
func NewStateCodec(secret string, ttl time.Duration, now func() time.Time) (*StateCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("google state: secret is required")
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	if now == nil {
		now = time.Now
	}
	sum := sha256.Sum256([]byte("google-state:" + secret))
	return &StateCodec{key: sum[:], ttl: ttl, now: now}, nil
}

// Begin creates a fresh state with a new PKCE verifier and returns it with its sealed form.
func (c *StateCodec) Begin(returnURL string) (GoogleState, string, error) {
	state := GoogleState{
		ReturnURL: strings.TrimSpace(returnURL),
		Verifier:  oauth2.GenerateVerifier(),
		IssuedAt:  c.now().UTC(),
	}
	token, err := c.Encode(state)
	if err != nil {
		return GoogleState{}, "", err
	}
	return state, token, nil
}

// Encode seals state into a URL-safe string.
func (c *StateCodec) Encode(state GoogleState) (string, error) {
	if state.Verifier == "" {
		return "", errors.New("google state: verifier is required")
	}
	if state.IssuedAt.IsZero() {
		state.IssuedAt = c.now().UTC()
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("google state: marshal: %w", err)
	}
	sealed, err := crypto.Seal(raw, c.key)
	if err != nil {
		return "", fmt.Errorf("google state: seal: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a sealed state and enforces its lifetime.
func (c *StateCodec) Decode(token string) (GoogleState, error) {
	var state GoogleState
	sealed, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil || len(sealed) == 0 {
		return state, ErrStateInvalid
	}
	raw, err := crypto.Open(sealed, c.key)
	if err != nil {
		return state, ErrStateInvalid
	}
	if err := json.Unmarshal(raw, &state); err != nil || state.Verifier == "" || state.IssuedAt.IsZero() {
		return GoogleState{}, ErrStateInvalid
	}
	if c.now().UTC().After(state.IssuedAt.Add(c.ttl)) {
		return GoogleState{}, ErrStateExpired
	}
	return state, nil
}
