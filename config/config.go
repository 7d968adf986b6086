package config

import (
	"os"
)

// Feature flags
var EnableWebsocketFeed bool
var FleetWorkerEnabled bool

// AI configuration
var AIEnabled bool
var GeminiAPIKey string
var GeminiDefaultModel string
var AIDefaultMaxTokens int
var AISingleTemperature float64 // single-session generation
var AIBulkTemperature float64   // fan-out generation, deliberately higher variance
var AICustomTemplate string     // prompt template for the custom-template action

// Remote control authority
var ControlBaseURL string
var ControlToken string
var ControlRefreshSeconds int

// Fleet behaviour
var StatusCycleSeconds int

// GetEnv reads a string env var with a fallback.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
