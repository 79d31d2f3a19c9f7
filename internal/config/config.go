package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix marks environment variables that override file settings.
// Nested keys use a double underscore: REVIEWBRIDGE_GENERAL__LOG_LEVEL.
const EnvPrefix = "REVIEWBRIDGE_"

// Config represents the application configuration
type Config struct {
	General   GeneralConfig   `koanf:"general"`
	Server    ServerConfig    `koanf:"server"`
	Providers ProvidersConfig `koanf:"providers"`
}

// GeneralConfig bounds every upstream call and the prompt summary
type GeneralConfig struct {
	Timeout          time.Duration `koanf:"timeout"`
	PerPage          int           `koanf:"per_page"`
	DisplayFiles     int           `koanf:"display_files"`
	DisplayComments  int           `koanf:"display_comments"`
	DescriptionLimit int           `koanf:"description_limit"`
	LogLevel         string        `koanf:"log_level"`
	LogFormat        string        `koanf:"log_format"`
}

// ServerConfig selects the tool transport
type ServerConfig struct {
	Transport         string  `koanf:"transport"`
	Listen            string  `koanf:"listen"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

type ProvidersConfig struct {
	GitHub GitHubSettings `koanf:"github"`
	GitLab GitLabSettings `koanf:"gitlab"`
	Gerrit GerritSettings `koanf:"gerrit"`
	Jira   JiraSettings   `koanf:"jira"`
}

type GitHubSettings struct {
	APIURL   string `koanf:"api_url"`
	Host     string `koanf:"host"`
	TokenEnv string `koanf:"token_env"`
}

type GitLabSettings struct {
	URL      string `koanf:"url"`
	TokenEnv string `koanf:"token_env"`
}

type GerritSettings struct {
	URL         string `koanf:"url"`
	UsernameEnv string `koanf:"username_env"`
	PasswordEnv string `koanf:"password_env"`
}

// JiraSettings only names variables; the Jira server URL is a secret-like
// per-user value and comes from the environment.
type JiraSettings struct {
	URLEnv   string `koanf:"url_env"`
	TokenEnv string `koanf:"token_env"`
}

var defaults = map[string]interface{}{
	"general.timeout":               "10s",
	"general.per_page":              100,
	"general.display_files":         10,
	"general.display_comments":      5,
	"general.description_limit":     500,
	"general.log_level":             "info",
	"general.log_format":            "console",
	"server.transport":              "stdio",
	"server.listen":                 "127.0.0.1:8080",
	"server.requests_per_second":    0,
	"providers.github.api_url":      "https://api.github.com/",
	"providers.github.host":         "github.com",
	"providers.github.token_env":    "GITHUB_TOKEN",
	"providers.gitlab.url":          "https://gitlab.cee.redhat.com",
	"providers.gitlab.token_env":    "GITLAB_TOKEN",
	"providers.gerrit.url":          "https://review.opendev.org",
	"providers.gerrit.username_env": "GERRIT_USERNAME",
	"providers.gerrit.password_env": "GERRIT_HTTP_PASSWORD",
	"providers.jira.url_env":        "JIRA_URL",
	"providers.jira.token_env":      "JIRA_API_TOKEN",
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./reviewbridge.toml", "$HOME/.reviewbridge.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix REVIEWBRIDGE_
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# reviewbridge configuration
# Tokens are never stored here; each provider names the environment
# variable it reads.

[general]
timeout = "10s"
per_page = 100
display_files = 10
display_comments = 5
description_limit = 500
log_level = "info"
log_format = "console"

[server]
transport = "stdio"   # stdio | http
listen = "127.0.0.1:8080"
requests_per_second = 0

[providers.github]
api_url = "https://api.github.com/"
host = "github.com"
token_env = "GITHUB_TOKEN"

[providers.gitlab]
url = "https://gitlab.cee.redhat.com"
token_env = "GITLAB_TOKEN"

[providers.gerrit]
url = "https://review.opendev.org"
username_env = "GERRIT_USERNAME"
password_env = "GERRIT_HTTP_PASSWORD"

[providers.jira]
url_env = "JIRA_URL"
token_env = "JIRA_API_TOKEN"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	g := config.General
	if g.Timeout <= 0 {
		return fmt.Errorf("general.timeout must be positive")
	}
	if g.PerPage < 1 || g.PerPage > 100 {
		return fmt.Errorf("general.per_page must be between 1 and 100, got %d", g.PerPage)
	}
	if g.DisplayFiles < 0 || g.DisplayComments < 0 || g.DescriptionLimit < 0 {
		return fmt.Errorf("general display limits must not be negative")
	}
	if _, err := zerolog.ParseLevel(g.LogLevel); err != nil {
		return fmt.Errorf("invalid general.log_level %q", g.LogLevel)
	}
	switch g.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("general.log_format must be console or json, got %q", g.LogFormat)
	}

	switch config.Server.Transport {
	case "stdio":
	case "http":
		if config.Server.Listen == "" {
			return fmt.Errorf("server.listen is required for the http transport")
		}
	default:
		return fmt.Errorf("server.transport must be stdio or http, got %q", config.Server.Transport)
	}
	if config.Server.RequestsPerSecond < 0 {
		return fmt.Errorf("server.requests_per_second must not be negative")
	}

	p := config.Providers
	if p.GitLab.URL == "" {
		return fmt.Errorf("providers.gitlab.url is required")
	}
	if p.Gerrit.URL == "" {
		return fmt.Errorf("providers.gerrit.url is required")
	}
	for name, v := range map[string]string{
		"providers.github.token_env":    p.GitHub.TokenEnv,
		"providers.gitlab.token_env":    p.GitLab.TokenEnv,
		"providers.gerrit.password_env": p.Gerrit.PasswordEnv,
		"providers.jira.url_env":        p.Jira.URLEnv,
		"providers.jira.token_env":      p.Jira.TokenEnv,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	return nil
}
