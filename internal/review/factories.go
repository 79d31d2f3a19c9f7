package review

import (
	"fmt"

	"github.com/reviewbridge/internal/config"
	"github.com/reviewbridge/internal/httpx"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/prompts"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/internal/providers/gerrit"
	"github.com/reviewbridge/internal/providers/github"
	"github.com/reviewbridge/internal/providers/gitlab"
	"github.com/reviewbridge/internal/providers/jira"
)

// UserAgent is sent on every upstream request.
const UserAgent = "reviewbridge"

// NewProviders creates one provider per platform from configuration and the
// credentials read at startup. Missing credentials are not an error here; each
// provider reports them when a tool is invoked.
func NewProviders(cfg *config.Config, creds config.Credentials) ([]providers.Provider, error) {
	client := func(p locator.Platform) httpx.Options {
		return httpx.Options{
			Platform:          string(p),
			Timeout:           cfg.General.Timeout,
			RequestsPerSecond: cfg.Server.RequestsPerSecond,
			UserAgent:         UserAgent,
		}
	}
	pc := cfg.Providers

	gh, err := github.New(github.GitHubConfig{
		APIURL:   pc.GitHub.APIURL,
		Host:     pc.GitHub.Host,
		Token:    creds.GitHubToken,
		TokenEnv: pc.GitHub.TokenEnv,
		PerPage:  cfg.General.PerPage,
	}, httpx.NewClient(client(locator.GitHub)))
	if err != nil {
		return nil, fmt.Errorf("failed to create github provider: %w", err)
	}

	gl, err := gitlab.New(gitlab.GitLabConfig{
		URL:      pc.GitLab.URL,
		Token:    creds.GitLabToken,
		TokenEnv: pc.GitLab.TokenEnv,
		PerPage:  cfg.General.PerPage,
	}, httpx.NewClient(client(locator.GitLab)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab provider: %w", err)
	}

	gr, err := gerrit.NewProvider(gerrit.Config{
		URL:         pc.Gerrit.URL,
		Username:    creds.GerritUsername,
		Password:    creds.GerritPassword,
		UsernameEnv: pc.Gerrit.UsernameEnv,
		PasswordEnv: pc.Gerrit.PasswordEnv,
	}, httpx.NewClient(client(locator.Gerrit)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gerrit provider: %w", err)
	}

	jr, err := jira.NewProvider(jira.Config{
		URL:      creds.JiraURL,
		Token:    creds.JiraToken,
		URLEnv:   pc.Jira.URLEnv,
		TokenEnv: pc.Jira.TokenEnv,
	}, httpx.NewClient(client(locator.Jira)))
	if err != nil {
		return nil, fmt.Errorf("failed to create jira provider: %w", err)
	}

	return []providers.Provider{gh, gl, gr, jr}, nil
}

// NewServiceFromConfig wires the providers and the prompt builder.
func NewServiceFromConfig(cfg *config.Config, creds config.Credentials) (*Service, error) {
	ps, err := NewProviders(cfg, creds)
	if err != nil {
		return nil, err
	}
	builder := prompts.NewPromptBuilder(prompts.Options{
		DescriptionLimit: cfg.General.DescriptionLimit,
		DisplayFiles:     cfg.General.DisplayFiles,
		DisplayComments:  cfg.General.DisplayComments,
	})
	return NewService(builder, ps...), nil
}
