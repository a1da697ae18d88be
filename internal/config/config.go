package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for the Superstaq API connection.
const (
	DefaultRemoteHost = "https://superstaq.super.tech"
	DefaultAPIVersion = "v0.1.0"
	DefaultTarget     = "ibmq_qasm_simulator"
	DefaultShots      = 1000
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for all databases (defaults to "../data" or "./data")
	Port                int
	DevMode             bool
	LogLevel            string
	SuperstaqAPIKey     string
	SuperstaqRemoteHost string
	SuperstaqAPIVersion string
	DefaultTarget       string
	DefaultShots        int
	RiskFreeRate        float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		// Check ../data first (when running from a subdirectory), then ./data
		if _, err := os.Stat("../data"); err == nil {
			dataDir = "../data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:             dataDir,
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		SuperstaqAPIKey:     resolveAPIKey(),
		SuperstaqRemoteHost: getEnv("SUPERSTAQ_REMOTE_HOST", DefaultRemoteHost),
		SuperstaqAPIVersion: getEnv("SUPERSTAQ_API_VERSION", DefaultAPIVersion),
		DefaultTarget:       getEnv("SUPERSTAQ_DEFAULT_TARGET", DefaultTarget),
		DefaultShots:        getEnvAsInt("SUPERSTAQ_DEFAULT_SHOTS", DefaultShots),
		RiskFreeRate:        getEnvAsFloat("RISK_FREE_RATE", 0.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveAPIKey finds the Superstaq API key. Resolution order follows the
// vendor convention: environment variable first, then well-known key files
// under the home directory. An empty result is not an error here; remote
// calls fail with a clear message when no key is configured.
func resolveAPIKey() string {
	if key := os.Getenv("SUPERSTAQ_API_KEY"); key != "" {
		return key
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	candidates := []string{
		filepath.Join(home, ".super.tech", "superstaq_api_key"),
		filepath.Join(home, ".config", "super.tech", "superstaq_api_key"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key
		}
	}

	return ""
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DefaultShots <= 0 {
		return fmt.Errorf("default shots must be positive, got %d", c.DefaultShots)
	}
	return nil
}

// HasAPIKey reports whether a Superstaq API key is configured.
func (c *Config) HasAPIKey() bool {
	return c.SuperstaqAPIKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
