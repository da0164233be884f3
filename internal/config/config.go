package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port           string
	Env            string
	WSPath         string
	AllowedOrigins []string

	SendBuffer      int
	MaxMessageBytes int64

	// SessionIdleTTL of zero keeps sessions for the life of the process.
	SessionIdleTTL       time.Duration
	SessionSweepSchedule string

	RedisAddr          string
	RedisEventsChannel string

	Provider     string
	GeminiAPIKey string
	GeminiModel  string

	TTSBaseURL string
	TTSAPIKey  string
	TTSModel   string

	HistoryDriver string
	HistoryDSN    string
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("APP_ENV", "production"),
		WSPath:               getEnvOrDefault("WS_PATH", "/ws"),
		AllowedOrigins:       splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		SessionSweepSchedule: getEnvOrDefault("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisEventsChannel:   getEnvOrDefault("REDIS_EVENTS_CHANNEL", "collab:events"),
		Provider:             getEnvOrDefault("AI_PROVIDER", "heuristic"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		TTSBaseURL:           os.Getenv("TTS_BASE_URL"),
		TTSAPIKey:            os.Getenv("TTS_API_KEY"),
		TTSModel:             getEnvOrDefault("TTS_MODEL", "tts-1"),
		HistoryDriver:        getEnvOrDefault("HISTORY_DRIVER", "sqlite"),
		HistoryDSN:           getEnvOrDefault("HISTORY_DSN", "codecollab-history.db"),
	}

	var err error
	if cfg.SendBuffer, err = getEnvInt("WS_SEND_BUFFER", 64); err != nil {
		return nil, err
	}
	maxBytes, err := getEnvInt("WS_MAX_MESSAGE_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxMessageBytes = int64(maxBytes)
	if cfg.SessionIdleTTL, err = getEnvDuration("SESSION_IDLE_TTL", 0); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.WSPath, "/") {
		return errors.New("WS_PATH must start with /: " + cfg.WSPath)
	}
	if cfg.SendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.MaxMessageBytes <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be positive, got %d", cfg.MaxMessageBytes)
	}
	if cfg.SessionIdleTTL < 0 {
		return errors.New("SESSION_IDLE_TTL must not be negative")
	}
	switch cfg.Provider {
	case "gemini", "heuristic":
	default:
		return errors.New("unsupported AI provider: " + cfg.Provider + ". Currently supported: gemini, heuristic")
	}
	switch cfg.HistoryDriver {
	case "postgres", "sqlite", "none":
	default:
		return errors.New("unsupported history driver: " + cfg.HistoryDriver + ". Currently supported: postgres, sqlite, none")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
