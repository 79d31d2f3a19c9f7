package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/pkg/models"
)

// DefaultURL is the instance the GitLab tool talks to unless configured.
const DefaultURL = "https://gitlab.cee.redhat.com"

var _ providers.Provider = (*GitLabProvider)(nil)

// GitLabProvider resolves issues, merge requests and commits
type GitLabProvider struct {
	client   *gitlab.Client
	token    string
	tokenEnv string
	perPage  int
	syntax   locator.Syntax
}

// GitLabConfig contains configuration for the GitLab provider
type GitLabConfig struct {
	URL      string
	Token    string
	TokenEnv string
	PerPage  int
}

// New creates a new GitLabProvider
func New(config GitLabConfig, httpClient *http.Client) (*GitLabProvider, error) {
	base := strings.TrimSuffix(strings.TrimSpace(config.URL), "/")
	if base == "" {
		base = DefaultURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid gitlab url %q", config.URL)
	}

	// Pacing and timeouts live in httpClient; client-go must neither retry
	// nor query the instance for its own rate limits.
	client, err := gitlab.NewClient(config.Token,
		gitlab.WithBaseURL(base),
		gitlab.WithHTTPClient(httpClient),
		gitlab.WithoutRetries(),
		gitlab.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	if config.TokenEnv == "" {
		config.TokenEnv = "GITLAB_TOKEN"
	}
	if config.PerPage <= 0 {
		config.PerPage = 100
	}
	return &GitLabProvider{
		client:   client,
		token:    config.Token,
		tokenEnv: config.TokenEnv,
		perPage:  config.PerPage,
		syntax:   syntax(u.Host),
	}, nil
}

func syntax(host string) locator.Syntax {
	return locator.Syntax{
		Platform: locator.GitLab,
		Host:     host,
		Keywords: map[string]locator.Kind{
			"issues":         locator.KindIssue,
			"merge_requests": locator.KindMergeRequest,
			"commit":         locator.KindCommit,
			"commits":        locator.KindCommit,
		},
		Separator:   "-",
		MinSegments: 4,
		Example:     "'group/project/issues/123' or 'group/project/-/merge_requests/123'",
	}
}

func (p *GitLabProvider) Platform() locator.Platform {
	return locator.GitLab
}

func (p *GitLabProvider) CredentialName() string {
	return p.tokenEnv
}

// CheckCredentials fails when no personal access token is configured.
func (p *GitLabProvider) CheckCredentials() error {
	if strings.TrimSpace(p.token) == "" {
		return fault.MissingEnv(p.tokenEnv, "GitLab personal access token")
	}
	return nil
}

func (p *GitLabProvider) Parse(input string) (locator.Locator, error) {
	return locator.Parse(p.syntax, input)
}

// Resolve fetches and normalizes the resource behind loc
func (p *GitLabProvider) Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error) {
	pl, err := p.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	return normalizePayload(loc, pl), nil
}
