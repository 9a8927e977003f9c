package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maelh/locmat/internal/model"
)

// Config holds the server configuration, loaded from the environment with an
// optional .env file. Command-line flags may override individual fields.
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string

	// ActiveStatuses is the set of booking statuses that consume stock.
	ActiveStatuses []string

	// NotifyURL is the webhook endpoint lifecycle notifications are posted
	// to. Empty disables the notifier.
	NotifyURL string

	// NotifyDebounce is how long the notifier batches events per client
	// before flushing.
	NotifyDebounce time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Addr:           getEnv("LOCMAT_ADDR", ":8080"),
		DBPath:         getEnv("LOCMAT_DB", "locmat.sqlite3"),
		JWTSecret:      getEnv("LOCMAT_JWT_SECRET", ""),
		NotifyURL:      getEnv("LOCMAT_NOTIFY_URL", ""),
		NotifyDebounce: 2 * time.Second,
	}

	statuses, err := parseStatuses(getEnv("LOCMAT_ACTIVE_STATUSES", ""))
	if err != nil {
		return nil, err
	}
	cfg.ActiveStatuses = statuses

	if v := os.Getenv("LOCMAT_NOTIFY_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LOCMAT_NOTIFY_DEBOUNCE: %w", err)
		}
		cfg.NotifyDebounce = d
	}

	return cfg, nil
}

// parseStatuses parses a comma-separated active-status list. Empty input
// selects the default set.
func parseStatuses(raw string) ([]string, error) {
	if raw == "" {
		return model.DefaultActiveStatuses, nil
	}

	var statuses []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !model.ValidStatus(s) {
			return nil, fmt.Errorf("unknown booking status %q in LOCMAT_ACTIVE_STATUSES", s)
		}
		statuses = append(statuses, s)
	}
	if len(statuses) == 0 {
		return model.DefaultActiveStatuses, nil
	}
	return statuses, nil
}

// getEnv returns an environment variable or a default if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
