package cli

import (
	"os"
	"strconv"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Retries   int
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("GOLFCTL_SERVER", "http://localhost:8080"),
		Output:    getEnvOrDefault("GOLFCTL_OUTPUT", "text"),
		Retries:   getEnvIntOrDefault("GOLFCTL_RETRIES", defaultRetries),
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}
