package app

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// decodeSecret accepts hex, standard base64 (padded or raw) or a plain passphrase.
// Hex is tried first because `openssl rand -hex` is the documented way to mint keys.
func decodeSecret(value string) []byte {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	if len(v)%2 == 0 {
		if decoded, err := hex.DecodeString(v); err == nil {
			return decoded
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(v); err == nil {
			return decoded
		}
	}
	return []byte(v)
}

// EncryptionKeyBytes returns the decoded at-rest encryption key, or nil when
// encryption is disabled.
func (c StorageConfig) EncryptionKeyBytes() []byte {
	return decodeSecret(c.EncryptionKey)
}

// EncryptionEnabled reports whether uploaded files are encrypted before storage.
func (c StorageConfig) EncryptionEnabled() bool {
	return len(c.EncryptionKeyBytes()) > 0
}
