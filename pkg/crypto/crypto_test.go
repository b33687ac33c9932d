package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, VerifyPassword(hash, "secret"))
	assert.False(t, VerifyPassword(hash, "incorrect"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "secret"))
}

func TestSealOpen(t *testing.T) {
	key := bytes.Repeat([]byte{0x2}, 32)

	sealed, err := Seal([]byte("%PDF-1.7"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "%PDF")

	again, err := Seal([]byte("%PDF-1.7"), key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "each seal uses a fresh nonce")

	opened, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(opened))

	_, err = Open(sealed, bytes.Repeat([]byte{0x3}, 32))
	require.Error(t, err)

	_, err = Open([]byte{1, 2}, key)
	require.ErrorIs(t, err, ErrCiphertextTooShort)

	_, err = Seal([]byte("x"), []byte("short"))
	require.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	_, err = GenerateToken(0)
	require.ErrorIs(t, err, ErrTokenLength)
}
