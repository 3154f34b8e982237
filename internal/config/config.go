package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported language-model backends.
const (
	BackendGroq   = "groq"
	BackendGemini = "gemini"
)

// Config holds the configuration for the application.
type Config struct {
	LLMBackend   string
	GroqAPIKey   string
	GroqModel    string
	GroqBaseURL  string
	GeminiAPIKey string
	GeminiModel  string

	// Generation budget
	FastTimeout   time.Duration
	StableTimeout time.Duration
	MaxTokens     int

	// Storage
	DatabasePath    string
	PlanArchivePath string
	RedisAddr       string

	// Service layer
	HTTPAddr            string
	JWTSecret           string
	RateLimitPerHour    int
	GlobalRatePerMinute int
	ProgressTTL         time.Duration

	// Telegram Config (optional, progress notifications for the care team)
	TelegramBotToken string
	TelegramChatID   int64

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LLM_BACKEND", BackendGroq)
	v.SetDefault("FAST_TIMEOUT", "90s")
	v.SetDefault("STABLE_TIMEOUT", "60s")
	v.SetDefault("MAX_TOKENS", 16000)
	v.SetDefault("DATABASE_PATH", "data/meal-planner.db")
	v.SetDefault("PLAN_ARCHIVE_PATH", "data/plans")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("RATE_LIMIT_PER_HOUR", 20)
	v.SetDefault("GLOBAL_RATE_PER_MINUTE", 30)
	v.SetDefault("PROGRESS_TTL", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// NewFromEnv creates a new Config object from environment variables.
// If CONFIG_FILE is set, values from that file are used where the
// environment does not override them.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	backend := strings.ToLower(v.GetString("LLM_BACKEND"))

	groqAPIKey := v.GetString("GROQ_API_KEY")
	geminiAPIKey := v.GetString("GEMINI_API_KEY")

	switch backend {
	case BackendGroq:
		if groqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case BackendGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_BACKEND %q", backend)
	}

	fastTimeout := v.GetDuration("FAST_TIMEOUT")
	stableTimeout := v.GetDuration("STABLE_TIMEOUT")
	if fastTimeout <= 0 || stableTimeout <= 0 {
		return nil, fmt.Errorf("FAST_TIMEOUT and STABLE_TIMEOUT must be positive durations")
	}

	return &Config{
		LLMBackend:          backend,
		GroqAPIKey:          groqAPIKey,
		GroqModel:           v.GetString("GROQ_MODEL"),
		GroqBaseURL:         v.GetString("GROQ_BASE_URL"),
		GeminiAPIKey:        geminiAPIKey,
		GeminiModel:         v.GetString("GEMINI_MODEL"),
		FastTimeout:         fastTimeout,
		StableTimeout:       stableTimeout,
		MaxTokens:           v.GetInt("MAX_TOKENS"),
		DatabasePath:        v.GetString("DATABASE_PATH"),
		PlanArchivePath:     v.GetString("PLAN_ARCHIVE_PATH"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		RateLimitPerHour:    v.GetInt("RATE_LIMIT_PER_HOUR"),
		GlobalRatePerMinute: v.GetInt("GLOBAL_RATE_PER_MINUTE"),
		ProgressTTL:         v.GetDuration("PROGRESS_TTL"),
		TelegramBotToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      v.GetInt64("TELEGRAM_CHAT_ID"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
	}, nil
}
