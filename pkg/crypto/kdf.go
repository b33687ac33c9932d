package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/crypto/argon2"
)

// KDFParams are the Argon2id cost factors. Memory is in KiB.
type KDFParams struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

// DefaultKDFParams costs roughly 64 MiB and two passes, tuned for a one-off
// derivation at start-up rather than per request.
var DefaultKDFParams = KDFParams{Time: 2, Memory: 64 << 10, Threads: 4, KeyLength: 32}

// Validate reports every invalid cost factor at once.
func (p KDFParams) Validate() error {
	var err error
	if p.Time == 0 {
		err = multierr.Append(err, errors.New("time cost must be positive"))
	}
	if p.Threads == 0 {
		err = multierr.Append(err, errors.New("parallelism must be positive"))
	}
	if p.Memory < 8*uint32(p.Threads) {
		err = multierr.Append(err, errors.New("memory must be at least 8 KiB per thread"))
	}
	if p.KeyLength != 16 && p.KeyLength != 24 && p.KeyLength != 32 {
		err = multierr.Append(err, fmt.Errorf("key length %d is not an AES size", p.KeyLength))
	}
	if err != nil {
		return fmt.Errorf("argon2: %w", err)
	}
	return nil
}

// DeriveKey stretches secret into an AES key with Argon2id.
func DeriveKey(secret, salt []byte, params KDFParams) ([]byte, error) {
	switch {
	case len(secret) == 0:
		return nil, errors.New("argon2: secret is required")
	case len(salt) < 16:
		return nil, fmt.Errorf("argon2: salt must be at least 16 bytes (got %d)", len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(secret, salt, params.Time, params.Memory, params.Threads, params.KeyLength), nil
}

// DeriveStableKey derives a key whose salt depends only on purpose and the
// secret, so the same passphrase yields the same key across restarts.
func DeriveStableKey(secret []byte, purpose string) ([]byte, error) {
	h := sha256.New()
	h.Write([]byte(purpose))
	h.Write([]byte{0})
	h.Write(secret)
	return DeriveKey(secret, h.Sum(nil)[:16], DefaultKDFParams)
}
