// Package config loads the bot configuration from bot.env and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFile is the optional dotenv file read before the environment is parsed.
const DefaultEnvFile = "bot.env"

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel     string        `env:"LOG_LEVEL" envDefault:"info"`             // Log level for the application (e.g., debug, info)
	EnvLogFileName   string        `env:"LOG_FILE_NAME" envDefault:"tgBot.log"`    // File's name for log (e.g., tgBot.log)
	EnvBotToken      string        `env:"TOKEN_BOT,required"`                      // Telegram Bot Token for authentication with the Telegram API
	EnvBotDebug      bool          `env:"BOT_DEBUG" envDefault:"false"`            // Verbose Telegram API logging
	EnvDBDriver      string        `env:"DB_DRIVER" envDefault:"sqlite"`           // Record store driver: mysql, postgres or sqlite
	EnvDBDSN         string        `env:"DB_DSN" envDefault:"kraflo.db"`           // Record store data source name
	EnvReportTmpDir  string        `env:"REPORT_TMP_DIR" envDefault:"temp_pdfs"`   // Directory for rendered reports before delivery
	EnvHTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`            // Ops server address, empty disables it
	EnvUpdateTimeout time.Duration `env:"UPDATE_TIMEOUT" envDefault:"60s"`         // Long polling timeout for Telegram updates
}

// NewConfig loads the optional .env file and parses the environment into a Config.
// A missing .env file is not an error: the process environment alone is enough.
func NewConfig(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		logrus.Infof("Env file %s not found, using process environment", envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EnvDBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected mysql, postgres or sqlite)", c.EnvDBDriver)
	}
	if c.EnvDBDSN == "" {
		return errors.New("DB_DSN must not be empty")
	}
	if c.EnvUpdateTimeout <= 0 {
		return fmt.Errorf("UPDATE_TIMEOUT must be positive, got %v", c.EnvUpdateTimeout)
	}
	return nil
}
