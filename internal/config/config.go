// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the vistoria core.
type Config struct {
	DataDir          string
	APIBaseURL       string
	APIToken         string
	UserID           string
	AutoSaveInterval time.Duration
	SweepInterval    time.Duration
	LogLevel         string
	LogFormat        string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DataDir:          getEnv("VISTORIA_DATA_DIR", defaultDataDir()),
		APIBaseURL:       getEnv("VISTORIA_API_URL", ""),
		APIToken:         getEnv("VISTORIA_API_TOKEN", ""),
		UserID:           getEnv("VISTORIA_USER_ID", ""),
		AutoSaveInterval: getDuration("VISTORIA_AUTOSAVE_INTERVAL", 30*time.Second),
		SweepInterval:    getDuration("VISTORIA_SWEEP_INTERVAL", 5*time.Minute),
		LogLevel:         getEnv("VISTORIA_LOG_LEVEL", "info"),
		LogFormat:        getEnv("VISTORIA_LOG_FORMAT", "json"),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vistoria"
	}
	return home + "/.vistoria"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
