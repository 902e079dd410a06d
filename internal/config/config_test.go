package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "COOKIE_SECURE",
		"AI_PROVIDER", "AI_API_KEY", "KRONOS_API_KEY", "OPENAI_API_KEY", "ARK_API_KEY",
		"ARK_ACCESS_KEY", "ARK_SECRET_KEY", "AI_MODEL", "AI_BASE_URL", "ARK_REGION",
		"AI_TIMEOUT_SECONDS", "REFLECT_STRICT_SCHEMA",
		"DATABASE_PATH", "JWT_SECRET", "JWT_EXPIRE_HOURS", "JWT_ISSUER",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.SecureCookie)

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "hermes", cfg.AI.Model)
	assert.False(t, cfg.AI.StrictSchema)
	assert.False(t, cfg.AI.Enabled())

	assert.Equal(t, "ubloom.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Expire)
	assert.Equal(t, "ubloom", cfg.Auth.Issuer)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.ubloom.io")
	t.Setenv("KRONOS_API_KEY", "secret")
	t.Setenv("AI_TIMEOUT_SECONDS", "30")
	t.Setenv("REFLECT_STRICT_SCHEMA", "true")
	t.Setenv("JWT_EXPIRE_HOURS", "2")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.ubloom.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.AI.StrictSchema)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.Auth.Expire)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port":     {"PORT", "http"},
		"provider": {"AI_PROVIDER", "anthropic"},
		"strict":   {"REFLECT_STRICT_SCHEMA", "maybe"},
		"timeout":  {"AI_TIMEOUT_SECONDS", "soon"},
		"expire":   {"JWT_EXPIRE_HOURS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestArkEnabledWithAccessKeys(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk, Model: "ep-123", AccessKey: "ak"}
	assert.False(t, cfg.Enabled())

	cfg.SecretKey = "sk"
	assert.True(t, cfg.Enabled())

	cfg.Model = ""
	assert.False(t, cfg.Enabled())
}
