package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"quiz-relay/api/internal/logging"
)

const GeminiAPIKeyEnv = "GEMINI_API_KEY"

type Config struct {
	Port      string
	RelayPath string
	LogLevel  string

	GeminiModel    string
	GeminiEndpoint string
	GeminiTimeout  time.Duration

	TelegramBotToken string
	WebhookURL       string
}

func mustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		logging.GetLogger().Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logging.GetLogger().Warnf("bad %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

// GeminiAPIKey читает ключ из окружения при каждом вызове: ключ не кешируется.
func GeminiAPIKey() string {
	return os.Getenv(GeminiAPIKeyEnv)
}

func Load() *Config {
	model := getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	return &Config{
		Port:      getEnv("PORT", "8000"),
		RelayPath: getEnv("RELAY_PATH", "/api/gemini"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		GeminiModel: model,
		GeminiEndpoint: getEnv("GEMINI_ENDPOINT",
			fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)),
		GeminiTimeout: getDuration("GEMINI_TIMEOUT", 120*time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// MustTelegramToken нужен только боту; relay без него работает.
func (c *Config) MustTelegramToken() string {
	if c.TelegramBotToken == "" {
		c.TelegramBotToken = mustEnv("TELEGRAM_BOT_TOKEN")
	}
	return c.TelegramBotToken
}
