package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string

	// AI extraction. An empty GeminiAPIKey disables the AI path entirely;
	// the deterministic fallback extractor then handles every message.
	GeminiAPIKey string
	GeminiModel  string
	AITimeout    time.Duration

	// ManagerChatID receives the scheduled reports. Zero disables delivery.
	ManagerChatID int64

	FlowTTL       time.Duration
	QueryCooldown time.Duration

	CronSpecDailyReport   string
	CronSpecMonthlyReport string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-flash"
	}

	aiTimeoutSec, err := intEnv("AI_TIMEOUT_SECONDS", 20)
	if err != nil {
		return nil, err
	}
	cfg.AITimeout = time.Duration(aiTimeoutSec) * time.Second

	managerIDStr := os.Getenv("MANAGER_CHAT_ID")
	if managerIDStr != "" {
		cfg.ManagerChatID, err = strconv.ParseInt(managerIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MANAGER_CHAT_ID: %w", err)
		}
	}

	flowTTLMin, err := intEnv("FLOW_TTL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.FlowTTL = time.Duration(flowTTLMin) * time.Minute

	cooldownSec, err := intEnv("QUERY_COOLDOWN_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.QueryCooldown = time.Duration(cooldownSec) * time.Second

	cfg.CronSpecDailyReport = os.Getenv("CRON_SPEC_DAILY_REPORT")
	if cfg.CronSpecDailyReport == "" {
		cfg.CronSpecDailyReport = "0 20 * * *" // Default: 8 PM daily snapshot
	}

	cfg.CronSpecMonthlyReport = os.Getenv("CRON_SPEC_MONTHLY_REPORT")
	if cfg.CronSpecMonthlyReport == "" {
		cfg.CronSpecMonthlyReport = "0 9 1 * *" // Default: 9 AM on the 1st, for the prior month
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}
