package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaults(t *testing.T) {
	t.Run("mints missing jwt secret", func(t *testing.T) {
		cfg := &Config{}
		generated, err := ApplyRuntimeDefaults(cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"auth.jwt.secret"}, generated)
		require.GreaterOrEqual(t, len(cfg.Auth.JWT.Secret), 48)
		require.Empty(t, cfg.Storage.EncryptionKey)
	})

	t.Run("secrets differ per run", func(t *testing.T) {
		a, b := &Config{}, &Config{}
		_, err := ApplyRuntimeDefaults(a)
		require.NoError(t, err)
		_, err = ApplyRuntimeDefaults(b)
		require.NoError(t, err)
		require.NotEqual(t, a.Auth.JWT.Secret, b.Auth.JWT.Secret)
	})

	t.Run("keeps configured secret", func(t *testing.T) {
		cfg := &Config{}
		cfg.Auth.JWT.Secret = "configured"
		generated, err := ApplyRuntimeDefaults(cfg)
		require.NoError(t, err)
		require.Empty(t, generated)
		require.Equal(t, "configured", cfg.Auth.JWT.Secret)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := ApplyRuntimeDefaults(nil)
		require.Error(t, err)
	})
}
