// Package config reads the rentstore settings from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/beesaferoot/rentstore/store"
)

// Prefix is prepended to every variable name, as in RENTSTORE_STORE_PATH.
const Prefix = "RENTSTORE"

type Config struct {
	StorePath   string `envconfig:"STORE_PATH" default:"rentstore.db"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
	SQLDebug    bool   `envconfig:"SQL_DEBUG"`
	BatchSize   int    `envconfig:"BATCH_SIZE" default:"100"`
}

// Load fills a Config from the environment and validates it. Callers load any .env
// file beforehand.
func Load() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process(Prefix, c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("set %s_STORE_PATH", Prefix)
	}
	switch store.Driver(c.StoreDriver) {
	case store.DriverSQLite, store.DriverPureGo:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// NewLogger builds the logger described by the config, writing to out. A nil out
// means stderr.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(out)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// StoreOptions maps the config onto store.Options.
func (c *Config) StoreOptions(log logrus.FieldLogger) store.Options {
	return store.Options{
		Path:     c.StorePath,
		Driver:   store.Driver(c.StoreDriver),
		Logger:   log,
		SQLDebug: c.SQLDebug,
	}
}
