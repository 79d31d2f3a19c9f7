package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/reviewbridge/internal/config"
	"github.com/reviewbridge/internal/logging"
	"github.com/reviewbridge/internal/review"
)

// runtime is what every command that talks to a platform needs.
type runtime struct {
	cfg     *config.Config
	service *review.Service
}

// loadConfig applies the global flags: the env file first so credentials and
// REVIEWBRIDGE_ overrides are visible, then the config file, then logging.
func loadConfig(c *cli.Context) (*config.Config, error) {
	envFile := c.String("env-file")
	if err := LoadEnvFile(envFile); err != nil {
		if c.IsSet("env-file") || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.General.LogLevel = level
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Init(cfg.General.LogLevel, cfg.General.LogFormat, c.App.ErrWriter); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bootstrap(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	creds := config.LoadCredentials(cfg, os.LookupEnv)
	service, err := review.NewServiceFromConfig(cfg, creds)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("gitlab", cfg.Providers.GitLab.URL).
		Str("gerrit", cfg.Providers.Gerrit.URL).
		Dur("timeout", cfg.General.Timeout).
		Msg("Providers configured")
	return &runtime{cfg: cfg, service: service}, nil
}
