//nolint:lll // struct tags can't be split
package marquee

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	EnvvarSetEnvPrefix = "MARQUEE_ENV_PREFIX"
	DefaultEnvPrefix   = "MARQUEE"

	DefaultLogLevel          = slog.LevelInfo
	DefaultDiscordLogLevel   = slog.LevelWarn
	DefaultDiscordgoLogLevel = slog.LevelWarn
	DefaultHTTPLogLevel      = slog.LevelInfo

	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	DefaultHTTPTimeout = 10 * time.Second

	// DefaultUserAgent identifies the bot to the upstream content APIs.
	DefaultUserAgent = "marquee (+https://github.com/ewhall/marquee)"

	DefaultDiscordGatewayIntent = discordgo.IntentsAllWithoutPrivileged
	DefaultDiscordCustomStatus  = "/xkcd | /tmdb"
	DefaultDiscordErrorMessage  = "sorry, something went wrong!"
)

// Config is the top-level bot configuration, loaded once at startup and
// read-only afterward.
type Config struct {
	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Discord configures the discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// TMDB configures access to The Movie Database API
	TMDB *TMDBConfig `yaml:"tmdb" mapstructure:"tmdb" json:"tmdb"`

	// HTTP configures the shared outbound HTTP client used for
	// the content APIs
	HTTP *HTTPConfig `yaml:"http" mapstructure:"http" json:"http"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// connect to discord and register commands. If this is passed, the
	// bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After
	// this elapses, the bot will force close the discord session and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord bot itself.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Discord application ID (from the 'General Information' tab in the discord dev portal)
	ApplicationID string `yaml:"application_id" mapstructure:"application_id" json:"application_id" binding:"required"`

	// GuildID specifies the guild ID used when registering slash commands.
	// Leave empty for commands to be registered as global.
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	// CustomStatus is set as the bot user's status once connected
	CustomStatus string `yaml:"custom_status" mapstructure:"custom_status" json:"custom_status"`

	// ErrorMessage is sent to the user when a command fails for a
	// reason that isn't their fault (upstream API errors, mostly)
	ErrorMessage string `yaml:"error_message" mapstructure:"error_message" json:"error_message" binding:"required"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	httpClient *http.Client
}

// TMDBConfig configures The Movie Database API integration
type TMDBConfig struct {
	// TMDb API key, sent as the `api_key` query parameter
	APIKey string `yaml:"api_key" mapstructure:"api_key" json:"api_key" log:"[redacted]" binding:"required"`
}

// HTTPConfig configures the shared outbound HTTP client
type HTTPConfig struct {
	// UserAgent is sent with every outbound request
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent" binding:"required"`

	// Timeout applies per request to the content APIs
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout" binding:"required"`

	// Log level for outbound request logging
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	httpLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	httpLogLevel.Set(DefaultHTTPLogLevel)

	return &Config{
		LogLevel:        mainLogLevel,
		StartupTimeout:  DefaultStartupTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		Discord: &DiscordConfig{
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
			GatewayIntents:    DefaultDiscordGatewayIntent,
			CustomStatus:      DefaultDiscordCustomStatus,
			ErrorMessage:      DefaultDiscordErrorMessage,
		},
		TMDB: &TMDBConfig{},
		HTTP: &HTTPConfig{
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultHTTPTimeout,
			LogLevel:  httpLogLevel,
		},
	}
}
