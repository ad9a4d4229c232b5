package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	GitHubAPIURL    string
	GitHubToken     string
	APIToken        string
	LookbackDays    int
	CommitLimit     int
	RunTimeout      time.Duration
	MaxUploadBytes  int64
}

func Load() Config {
	return Config{
		Port:            envInt("VIBETRACE_PORT", 8760),
		NatsURL:         envOptional("NATS_URL", "nats://hermes:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("VIBETRACE_MODEL", "claude-sonnet-4-20250514"),
		GitHubAPIURL:    envStr("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:     envStr("GITHUB_TOKEN", ""),
		APIToken:        envStr("VIBETRACE_API_TOKEN", ""),
		LookbackDays:    envInt("VIBETRACE_LOOKBACK_DAYS", 90),
		CommitLimit:     envInt("VIBETRACE_COMMIT_LIMIT", 100),
		RunTimeout:      envDuration("VIBETRACE_RUN_TIMEOUT", 5*time.Minute),
		MaxUploadBytes:  int64(envInt("VIBETRACE_MAX_UPLOAD_BYTES", 20<<20)),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOptional distinguishes unset from explicitly empty: an empty value
// turns the feature off.
func envOptional(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
