package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LLM providers selectable through LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	ExportDir    string
	Port         string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqAPIBase  string
	GroqModel    string

	// JWTSecret verifies the HS256 bearer tokens issued by the auth provider.
	JWTSecret string

	LogLevel  string
	LogFormat string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// DefaultUserID owns data created from the CLI.
	DefaultUserID string
}

// NewFromEnv creates a new Config object from environment variables. A .env
// file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	provider := getEnv("LLM_PROVIDER", ProviderGemini)
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	groqAPIKey := os.Getenv("GROQ_API_KEY")
	switch provider {
	case ProviderGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if groqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if s := os.Getenv("ADMIN_TELEGRAM_ID"); s != "" {
		adminID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		DatabasePath:           getEnv("DATABASE_PATH", "data/kecarajocomer.db"),
		ExportDir:              getEnv("EXPORT_DIR", "data/exports"),
		Port:                   getEnv("PORT", "8080"),
		LLMProvider:            provider,
		GeminiAPIKey:           geminiAPIKey,
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:             groqAPIKey,
		GroqAPIBase:            getEnv("GROQ_API_BASE", "https://api.groq.com/openai/v1"),
		GroqModel:              getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		JWTSecret:              jwtSecret,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
		DefaultUserID:          getEnv("DEFAULT_USER_ID", "default_user"),
	}, nil
}

// TelegramEnabled reports whether the bot has enough config to start.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramWebhookURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
