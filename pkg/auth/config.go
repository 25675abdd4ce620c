package auth

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/y0ug/colourlife/pkg/auth/providers"
)

// Config holds the configuration of the Colourlife login flow.
type Config struct {
	Provider        *providers.ColourlifeProvider
	ProviderConfig  providers.ProviderConfig
	Stateless       bool
	HTTPTimeout     time.Duration
	SessionSecret   []byte
	StateExpiration time.Duration
	SecureCookie    bool
	CookieSameSite  http.SameSite
}

// NewConfig initializes the authentication configuration from environment variables.
func NewConfig() (*Config, error) {
	authConfig := &Config{}

	providerConfig, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}
	authConfig.ProviderConfig = *providerConfig

	authConfig.Stateless, err = strconv.ParseBool(getEnv("COLOURLIFE_STATELESS", "false"))
	if err != nil {
		return nil, fmt.Errorf("error parsing COLOURLIFE_STATELESS: %w", err)
	}

	authConfig.HTTPTimeout, err = parseDurationString(getEnv("COLOURLIFE_HTTP_TIMEOUT", "seconds=10"))
	if err != nil {
		return nil, fmt.Errorf("error parsing COLOURLIFE_HTTP_TIMEOUT: %w", err)
	}

	if !authConfig.Stateless {
		authConfig.SessionSecret, err = getEnvBytes("SESSION_SECRET")
		if err != nil {
			return nil, fmt.Errorf("error loading SESSION_SECRET: %w", err)
		}
	}

	authConfig.StateExpiration, err = parseDurationString(getEnv("STATE_EXPIRATION", "minutes=10"))
	if err != nil {
		return nil, fmt.Errorf("error parsing STATE_EXPIRATION: %w", err)
	}

	authConfig.SecureCookie, err = strconv.ParseBool(getEnv("SECURE_COOKIE", "false"))
	if err != nil {
		return nil, fmt.Errorf("error parsing SECURE_COOKIE: %w", err)
	}

	authConfig.CookieSameSite, err = parseSameSite(getEnv("COOKIE_SAMESITE", "lax"))
	if err != nil {
		return nil, fmt.Errorf("error parsing COOKIE_SAMESITE: %w", err)
	}

	authConfig.Provider, err = newProvider(authConfig)
	if err != nil {
		return nil, err
	}

	return authConfig, nil
}

// loadProviderConfig loads the Colourlife client settings.
func loadProviderConfig() (*providers.ProviderConfig, error) {
	const prefix = "COLOURLIFE_"

	providerConfig := providers.ProviderConfig{
		ClientID:       getEnv(prefix+"CLIENT_ID", ""),
		ClientSecret:   getEnv(prefix+"CLIENT_SECRET", ""),
		RedirectURL:    getEnv(prefix+"REDIRECT_URL", ""),
		ScopeSeparator: getEnv(prefix+"SCOPE_SEPARATOR", ","),
	}

	for _, required := range []struct{ name, value string }{
		{prefix + "CLIENT_ID", providerConfig.ClientID},
		{prefix + "CLIENT_SECRET", providerConfig.ClientSecret},
		{prefix + "REDIRECT_URL", providerConfig.RedirectURL},
	} {
		if required.value == "" {
			return nil, fmt.Errorf("%s is not set", required.name)
		}
	}

	env, err := providers.ParseEnvironment(getEnv(prefix+"ENVIRONMENT", string(providers.EnvironmentProd)))
	if err != nil {
		return nil, fmt.Errorf("error parsing %sENVIRONMENT: %w", prefix, err)
	}
	providerConfig.Environment = env

	for _, scope := range strings.Split(getEnv(prefix+"SCOPES", "snsapi_base"), ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			providerConfig.Scopes = append(providerConfig.Scopes, scope)
		}
	}

	providerConfig.AdditionalParams = providers.ParseParams(getEnv(prefix+"ADDITIONAL_PARAMS", ""))

	return &providerConfig, nil
}

// newProvider instantiates the provider described by config.
func newProvider(config *Config) (*providers.ColourlifeProvider, error) {
	provider, err := providers.NewColourlifeProvider(config.ProviderConfig)
	if err != nil {
		return nil, fmt.Errorf("error initializing colourlife provider: %w", err)
	}

	provider.SetHTTPClient(&http.Client{Timeout: config.HTTPTimeout})
	if config.Stateless {
		provider.Stateless()
	}
	return provider, nil
}

// getEnv retrieves the value of the environment variable named by the key.
// It returns the value, or the defaultValue if the variable is not present.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvBytes retrieves the byte slice value of the environment variable named by the key.
// It returns the byte slice, or an error if the variable is not set.
func getEnvBytes(key string) ([]byte, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil, fmt.Errorf("environment variable %s not set", key)
	}
	return []byte(value), nil
}

// parseDurationString parses a duration string formatted as "minutes=1, hours=2, days=3, seconds=30"
func parseDurationString(s string) (time.Duration, error) {
	parts := strings.Split(s, ",")
	var totalDuration time.Duration

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyValue := strings.SplitN(part, "=", 2)
		if len(keyValue) != 2 {
			return 0, fmt.Errorf("invalid format for part: '%s'", part)
		}
		key := strings.ToLower(strings.TrimSpace(keyValue[0]))
		valueStr := strings.TrimSpace(keyValue[1])
		value, err := strconv.Atoi(valueStr)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: '%s'", key, valueStr)
		}

		switch key {
		case "minutes":
			totalDuration += time.Duration(value) * time.Minute
		case "hours":
			totalDuration += time.Duration(value) * time.Hour
		case "days":
			totalDuration += time.Duration(value) * 24 * time.Hour
		case "seconds":
			totalDuration += time.Duration(value) * time.Second
		default:
			return 0, fmt.Errorf("unknown time unit: '%s'", key)
		}
	}

	return totalDuration, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("invalid SameSite value: '%s'", s)
	}
}
