// Package crypto holds the primitives shared by auth and storage: password
// hashing, AES-GCM sealing and random token generation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrCiphertextTooShort is returned when a payload cannot hold a GCM nonce.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	// ErrTokenLength rejects a non-positive token size.
	ErrTokenLength = errors.New("crypto: token length must be positive")
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("crypto: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Seal encrypts plaintext under key and returns nonce||ciphertext. The key
// must be 16, 24 or 32 bytes.
func Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := gcm(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts a payload produced by Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aead, err := gcm(key)
	if err != nil {
		return nil, err
	}
	size := aead.NonceSize()
	if len(sealed) < size+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plain, err := aead.Open(nil, sealed[:size], sealed[size:], nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: open: %w", err)
	}
	return plain, nil
}

// GenerateToken returns length random bytes encoded as unpadded base64url.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", ErrTokenLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto: random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func gcm(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
