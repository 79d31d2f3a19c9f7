// Package jira resolves Jira issues and exposes the read-only browse calls
// (search, users, projects, boards and sprints) through go-jira with a
// personal access token.
package jira

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/pkg/models"
)

var _ providers.Provider = (*Provider)(nil)

// Config holds the Jira endpoint and token, both read from the environment.
type Config struct {
	URL      string
	Token    string
	URLEnv   string
	TokenEnv string
}

// Provider implements providers.Provider for Jira.
type Provider struct {
	client   *gojira.Client
	baseURL  string
	token    string
	urlEnv   string
	tokenEnv string
	syntax   locator.Syntax
}

// NewProvider creates a Provider. A missing URL or token is reported by
// CheckCredentials, not here, so the tools can still be registered.
func NewProvider(cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.URLEnv == "" {
		cfg.URLEnv = "JIRA_URL"
	}
	if cfg.TokenEnv == "" {
		cfg.TokenEnv = "JIRA_API_TOKEN"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	host := ""
	if u, err := url.Parse(base); err == nil {
		host = u.Host
	}

	// The PAT transport sits under the shared client so timeouts, pacing and
	// metrics still apply.
	authed := &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &gojira.PATAuthTransport{Token: cfg.Token, Transport: httpClient.Transport},
	}
	client, err := gojira.NewClient(authed, base+"/")
	if err != nil {
		return nil, err
	}

	return &Provider{
		client:   client,
		baseURL:  base,
		token:    cfg.Token,
		urlEnv:   cfg.URLEnv,
		tokenEnv: cfg.TokenEnv,
		syntax: locator.Syntax{
			Platform: locator.Jira,
			Host:     host,
			Example:  "PROJ-123",
		},
	}, nil
}

func (p *Provider) Platform() locator.Platform {
	return locator.Jira
}

func (p *Provider) CredentialName() string {
	return p.tokenEnv
}

// CheckCredentials requires both the server URL and the token.
func (p *Provider) CheckCredentials() error {
	if p.baseURL == "" || strings.TrimSpace(p.token) == "" {
		return fault.Configuration(
			"Missing "+p.urlEnv+" or "+p.tokenEnv+" environment variables",
			"To set them: export "+p.urlEnv+"='https://jira.example.com' and export "+p.tokenEnv+"='your_token_here'",
		)
	}
	return nil
}

// Parse accepts issue keys and browse URLs.
func (p *Provider) Parse(input string) (locator.Locator, error) {
	return locator.ParseKey(p.syntax, input)
}

// Resolve fetches the issue and normalizes it.
func (p *Provider) Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error) {
	is, err := p.fetchIssue(ctx, issueKey(loc))
	if err != nil {
		return nil, err
	}
	return p.normalize(loc, is), nil
}

func issueKey(loc locator.Locator) string {
	return loc.Namespace + "-" + loc.ID
}
