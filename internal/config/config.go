package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ReflectionTemperature biases the model toward schema-following output.
const ReflectionTemperature float32 = 0.4

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config aggregates the settings of the whole service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Database: loadDatabaseConfig(),
		Auth:     auth,
		Log:      loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	SecureCookie   bool
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	secure, err := parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		SecureCookie:   secure,
	}

	if strings.Contains(port, ":") {
		// Accept ":5000" or "127.0.0.1:5000" as-is.
		cfg.Addr = port
		return cfg, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig describes the completion model used by the reflection engine.
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Timeout      time.Duration
	StrictSchema bool
}

// Enabled reports whether enough credentials were supplied to build a model.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel creates the configured model. The underlying clients are built
// without retries: a reflection request is a single attempt.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("AI credentials or model missing for provider %q", c.Provider)
	}

	temperature := ReflectionTemperature

	switch c.Provider {
	case ProviderArk:
		timeout := c.Timeout
		retries := 0
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			Temperature: &temperature,
			RetryTimes:  &retries,
		}
		if timeout > 0 {
			cfg.Timeout = &timeout
		}
		return ark.NewChatModel(ctx, cfg)

	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: &temperature,
			Timeout:     c.Timeout,
		})

	default:
		return nil, fmt.Errorf("unknown AI provider: %s", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	strict, err := parseBoolEnv("REFLECT_STRICT_SCHEMA", false)
	if err != nil {
		return AIConfig{}, err
	}

	var timeout time.Duration
	if seconds, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if seconds != nil && *seconds > 0 {
		timeout = time.Duration(*seconds) * time.Second
	}

	defaultBaseURL := ""
	if provider == ProviderArk {
		defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	return AIConfig{
		Provider:     provider,
		APIKey:       firstEnv("AI_API_KEY", "KRONOS_API_KEY", "OPENAI_API_KEY", "ARK_API_KEY"),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        getEnvOrDefault("AI_MODEL", "hermes"),
		BaseURL:      getEnvOrDefault("AI_BASE_URL", defaultBaseURL),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Timeout:      timeout,
		StrictSchema: strict,
	}, nil
}

// DatabaseConfig points at the SQLite file backing accounts.
type DatabaseConfig struct {
	Path string
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{Path: getEnvOrDefault("DATABASE_PATH", "ubloom.db")}
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	Secret string
	Expire time.Duration
	Issuer string
}

func loadAuthConfig() (AuthConfig, error) {
	hours := 24
	if override, err := parseOptionalIntEnv("JWT_EXPIRE_HOURS"); err != nil {
		return AuthConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AuthConfig{}, fmt.Errorf("invalid JWT_EXPIRE_HOURS value %d", *override)
		}
		hours = *override
	}

	return AuthConfig{
		Secret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		Expire: time.Duration(hours) * time.Hour,
		Issuer: getEnvOrDefault("JWT_ISSUER", "ubloom"),
	}, nil
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
