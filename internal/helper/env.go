// internal/helper/env.go
package helper

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvAsInt reads an int env var with a fallback
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvAsFloat reads a float env var with a fallback
func GetEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvAsBool reads "true"/"false" with a fallback
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true")
	}
	return fallback
}

// GetEnvAsList splits a comma-separated env var, trimming whitespace.
// Empty value returns nil.
func GetEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
