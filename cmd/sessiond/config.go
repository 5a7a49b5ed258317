package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Session backends selectable with SESSION_BACKEND.
const (
	backendMemory   = "memory"
	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

var errUnknownBackend = errors.New("unknown session backend")

type config struct {
	AppName         string        `env:"APP_NAME" envDefault:"sessiond"`
	AppEnv          string        `env:"APP_ENV" envDefault:"production"`
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Backend    string `env:"SESSION_BACKEND" envDefault:"memory"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"sessions.db"`

	Log     logger.Config
	Session session.Config
}

// loadConfig reads an optional .env file and parses the environment.
// Backend specific settings are parsed later, only for the chosen backend.
func loadConfig() (config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Backend {
	case backendMemory, backendSQLite, backendPostgres, backendRedis:
	default:
		return config{}, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}

	return cfg, nil
}
