package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/megumi-soft/slack-chatgpt/core/db"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

type Config struct {
	OTel     OTelConfig
	Slack    SlackConfig
	OpenAI   OpenAIConfig
	Dedup    DedupConfig
	WebFetch WebFetchConfig
	Pipeline PipelineConfig
	Persona  PersonaConfig
	Env      string
	Port     string
	DB       db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type SlackConfig struct {
	BotToken      string
	BotUserID     string
	BotID         string // Optional: bot_id stamped on messages posted by the app
	SigningSecret string // Optional: enables request signature verification
	APIBaseURL    string
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// DedupBackend selects the durable store behind the duplicate-event guard.
type DedupBackend string

const (
	DedupBackendRedis    DedupBackend = "redis"
	DedupBackendPostgres DedupBackend = "postgres"
	DedupBackendMemory   DedupBackend = "memory"
)

type DedupConfig struct {
	Backend   DedupBackend
	RedisURL  string
	KeyPrefix string
	TTL       time.Duration
}

type WebFetchConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	MaxChars  int
	UserAgent string
}

type PipelineConfig struct {
	Async         bool
	Timeout       time.Duration
	FallbackReply string // Posted when retrieval or completion fails; empty keeps the bot silent
}

type PersonaConfig struct {
	Prompt     string
	PromptFile string
}

// Load loads configuration from environment variables.
// In development it first loads .env.server, falling back to .env.
func Load() (Config, error) {
	if getEnv("RELAY_ENV", "development") == "development" {
		if err := godotenv.Load(".env.server"); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("RELAY_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 5),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "slack-chatgpt"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Slack: SlackConfig{
			BotToken:      getEnv("SLACK_BOT_TOKEN", ""),
			BotUserID:     getEnv("SLACK_BOT_USER_ID", ""),
			BotID:         getEnv("SLACK_BOT_ID", ""),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
			APIBaseURL:    getEnv("SLACK_API_BASE_URL", "https://slack.com/api"),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			BaseURL:   getEnv("OPENAI_BASE_URL", ""),
			Model:     getEnv("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 0),
		},
		Dedup: DedupConfig{
			Backend:   DedupBackend(strings.ToLower(getEnv("DEDUP_BACKEND", string(DedupBackendRedis)))),
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("DEDUP_KEY_PREFIX", "slack_event:"),
			TTL:       getEnvDuration("DEDUP_TTL", 7*24*time.Hour),
		},
		WebFetch: WebFetchConfig{
			Timeout:   getEnvDuration("WEBFETCH_TIMEOUT", 15*time.Second),
			MaxBytes:  int64(getEnvInt("WEBFETCH_MAX_BYTES", 2<<20)),
			MaxChars:  getEnvInt("WEBFETCH_MAX_CHARS", 4000),
			UserAgent: getEnv("WEBFETCH_USER_AGENT", "slack-chatgpt/1.0"),
		},
		Pipeline: PipelineConfig{
			Async:         getEnvBool("PROCESS_ASYNC", false),
			Timeout:       getEnvDuration("PIPELINE_TIMEOUT", 2*time.Minute),
			FallbackReply: getEnv("FALLBACK_REPLY", ""),
		},
		Persona: PersonaConfig{
			Prompt:     getEnv("PERSONA_PROMPT", ""),
			PromptFile: getEnv("PERSONA_PROMPT_FILE", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Slack.BotToken == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if c.Slack.BotUserID == "" {
		missing = append(missing, "SLACK_BOT_USER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", domain.ErrConfiguration, strings.Join(missing, ", "))
	}

	switch c.Dedup.Backend {
	case DedupBackendRedis:
		if c.Dedup.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL is required for redis dedup backend", domain.ErrConfiguration)
		}
	case DedupBackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for postgres dedup backend", domain.ErrConfiguration)
		}
	case DedupBackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("%w: memory dedup backend is not allowed in production", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown DEDUP_BACKEND %q", domain.ErrConfiguration, c.Dedup.Backend)
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c SlackConfig) SignatureVerificationEnabled() bool {
	return c.SigningSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
