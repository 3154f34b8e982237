package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("LLM_BACKEND", "groq")
		setEnv("GROQ_API_KEY", "groq_key")
		setEnv("FAST_TIMEOUT", "2m")
		setEnv("RATE_LIMIT_PER_HOUR", "5")
		setEnv("TELEGRAM_CHAT_ID", "-100123")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, BackendGroq, cfg.LLMBackend)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
		assert.Equal(t, 2*time.Minute, cfg.FastTimeout)
		assert.Equal(t, 60*time.Second, cfg.StableTimeout)
		assert.Equal(t, 5, cfg.RateLimitPerHour)
		assert.Equal(t, int64(-100123), cfg.TelegramChatID)
		assert.Equal(t, 16000, cfg.MaxTokens)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		setEnv("LLM_BACKEND", "groq")
		os.Unsetenv("GROQ_API_KEY")

		_, err := NewFromEnv()
		require.EqualError(t, err, "GROQ_API_KEY environment variable not set")
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv("LLM_BACKEND", "gemini")
		setEnv("GROQ_API_KEY", "groq_key")
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		require.EqualError(t, err, "GEMINI_API_KEY environment variable not set")
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		setEnv("LLM_BACKEND", "carrier-pigeon")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM_BACKEND")
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("LLM_BACKEND: gemini\nGEMINI_API_KEY: file_key\nHTTP_ADDR: \":9000\"\n"), 0o644))

		os.Unsetenv("LLM_BACKEND")
		os.Unsetenv("HTTP_ADDR")
		setEnv("CONFIG_FILE", path)

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendGemini, cfg.LLMBackend)
		assert.Equal(t, "file_key", cfg.GeminiAPIKey)
		assert.Equal(t, ":9000", cfg.HTTPAddr)
	})
}
