package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// LLMConfig holds the process-level defaults for the chat-completion provider.
// It is built once at startup and handed to the gateway at construction;
// individual calls may override Model, Temperature and MaxTokens.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL        string
	JWTSecret          string
	Port               string
	TokenTTL           time.Duration
	RateLimitRecommend RateLimitConfig
	LLM                LLMConfig
	MaxCandidates      int
	DatasetPath        string
	DefaultPhoneRegion string
	AdminEmail         string
	AdminPassword      string
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret"),
		Port:        getEnv("PORT", "8080"),
		TokenTTL:    parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		LLM: LLMConfig{
			APIKey:      os.Getenv("GROQ_API_KEY"),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			Temperature: float32(parseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 0.2)),
			MaxTokens:   parseInt(getEnv("LLM_MAX_TOKENS", ""), 0),
			Timeout:     parseDuration(getEnv("LLM_TIMEOUT", "30s"), 30*time.Second),
		},
		MaxCandidates:      parseInt(getEnv("MAX_CANDIDATES", "500"), 500),
		DatasetPath:        os.Getenv("DATASET_PATH"),
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IN"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_RECOMMEND", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RECOMMEND value: %w", err)
	}
	cfg.RateLimitRecommend = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}

func parseFloat(input string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return v
}
