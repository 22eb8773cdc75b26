package marquee

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg.LogLevel)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel.Level())

	require.NotNil(t, cfg.Discord)
	assert.Equal(t, DefaultDiscordLogLevel, cfg.Discord.LogLevel.Level())
	assert.Equal(t, DefaultDiscordgoLogLevel, cfg.Discord.DiscordGoLogLevel.Level())
	assert.Equal(t, DefaultDiscordCustomStatus, cfg.Discord.CustomStatus)
	assert.Equal(t, DefaultDiscordErrorMessage, cfg.Discord.ErrorMessage)
	assert.Equal(t, DefaultDiscordGatewayIntent, cfg.Discord.GatewayIntents)

	require.NotNil(t, cfg.TMDB)
	require.NotNil(t, cfg.HTTP)
	assert.Equal(t, DefaultUserAgent, cfg.HTTP.UserAgent)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTP.Timeout)

	assert.Equal(t, DefaultStartupTimeout, cfg.StartupTimeout)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestValidateConfig(t *testing.T) {
	m, err := New(newTestConfig(t))
	require.NoError(t, err)
	assert.NoError(t, m.ValidateConfig())
}

func TestValidateConfigMissingRequired(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Discord.Token = ""
	cfg.TMDB.APIKey = ""

	m, err := New(cfg)
	require.NoError(t, err)

	validateErr := m.ValidateConfig()
	require.Error(t, validateErr)
	assert.Contains(t, validateErr.Error(), "Token")
	assert.Contains(t, validateErr.Error(), "APIKey")
}

func TestConfigLogValueRedactsSecrets(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Discord.Token = "super-secret-token"
	cfg.TMDB.APIKey = "super-secret-key"

	logged := cfg.LogValue().String()
	assert.NotContains(t, logged, "super-secret-token")
	assert.NotContains(t, logged, "super-secret-key")
	assert.True(t, strings.Contains(logged, "[redacted]"))
}

func TestLevelVarDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel.Set(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel.Level())
}
