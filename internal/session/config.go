package session

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Config holds the session store configuration.
type Config struct {
	Type      string
	Path      string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// LoadConfig loads the session store configuration from environment variables.
func LoadConfig() (*Config, error) {
	storeType := os.Getenv("SESSION_STORE")
	if storeType == "" {
		storeType = "memory"
	}

	config := &Config{
		Type: storeType,
	}

	switch storeType {
	case "memory":
	case "bolt":
		config.Path = os.Getenv("SESSION_PATH")
		if config.Path == "" {
			return nil, fmt.Errorf("SESSION_PATH is required for the bolt session store")
		}
	case "redis":
		config.RedisAddr = os.Getenv("REDIS_ADDR")
		if config.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis session store")
		}
		config.RedisPass = os.Getenv("REDIS_PASSWORD")
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB value: %v", err)
			}
			config.RedisDB = db
		}
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE: %s", storeType)
	}

	return config, nil
}

// NewStore opens the store described by cfg.
func NewStore(cfg *Config, logger *logrus.Logger) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return NewBoltStore(cfg.Path, logger)
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Type)
	}
}
