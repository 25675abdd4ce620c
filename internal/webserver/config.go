package webserver

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// WebserverConfig holds the configuration for the webserver.
type WebserverConfig struct {
	ListenTo           string
	CorsAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// NewWebserverConfig initializes the webserver configuration from environment variables.
func NewWebserverConfig() (*WebserverConfig, error) {
	config := &WebserverConfig{
		ShutdownTimeout: 5 * time.Second,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	config.ListenTo = ":" + port

	corsAllowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsAllowedOrigins != "" {
		for _, origin := range strings.Split(corsAllowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.CorsAllowedOrigins = append(config.CorsAllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("error parsing SHUTDOWN_TIMEOUT: %w", err)
		}
		config.ShutdownTimeout = timeout
	}

	return config, nil
}
