// Package gerrit resolves Gerrit changes over the Gerrit REST API.
package gerrit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/pkg/models"
)

// DefaultURL is the OpenDev review server.
const DefaultURL = "https://review.opendev.org"

var _ providers.Provider = (*Provider)(nil)

// Config holds configuration for the Gerrit provider. Username and Password
// are optional; without them the provider reads anonymously.
type Config struct {
	URL         string
	Username    string
	Password    string
	UsernameEnv string
	PasswordEnv string
}

// Provider implements providers.Provider for Gerrit.
type Provider struct {
	baseURL     string
	username    string
	password    string
	passwordEnv string
	httpClient  *http.Client
	syntax      locator.Syntax
}

// NewProvider creates a Provider with the supplied configuration.
func NewProvider(cfg Config, httpClient *http.Client) (*Provider, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		base = DefaultURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid gerrit url %q", cfg.URL)
	}
	if cfg.PasswordEnv == "" {
		cfg.PasswordEnv = "GERRIT_HTTP_PASSWORD"
	}
	return &Provider{
		baseURL:     base,
		username:    strings.TrimSpace(cfg.Username),
		password:    cfg.Password,
		passwordEnv: cfg.PasswordEnv,
		httpClient:  httpClient,
		syntax: locator.Syntax{
			Platform:        locator.Gerrit,
			Host:            u.Host,
			Keywords:        map[string]locator.Kind{"+": locator.KindGerritChange},
			Separator:       "+",
			SeparatorIsKind: true,
			SkipPrefix:      "c",
			MinSegments:     3,
			Example:         base + "/c/<project>/+/<change>",
		},
	}, nil
}

func (p *Provider) Platform() locator.Platform {
	return locator.Gerrit
}

func (p *Provider) CredentialName() string {
	return p.passwordEnv
}

// CheckCredentials only fails for a half configured login: a username
// without its HTTP password.
func (p *Provider) CheckCredentials() error {
	if p.username != "" && p.password == "" {
		return fault.MissingEnv(p.passwordEnv, "Gerrit HTTP password")
	}
	return nil
}

func (p *Provider) Parse(input string) (locator.Locator, error) {
	return locator.Parse(p.syntax, input)
}

// Resolve fetches and normalizes the change behind loc.
func (p *Provider) Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error) {
	if loc.Kind != locator.KindGerritChange {
		return nil, fault.InputFormat("Unsupported Gerrit resource %q. Expected format: %s", loc.RawKind, p.syntax.Example)
	}
	pl, err := p.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	return p.normalize(loc, pl), nil
}

func (p *Provider) authenticated() bool {
	return p.username != "" && p.password != ""
}
