package github

import (
	"context"
	"strings"

	gh "github.com/google/go-github/v72/github"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/pkg/models"
)

var _ providers.Provider = (*GitHubProvider)(nil)

// GitHubProvider resolves pull requests, issues and commits.
type GitHubProvider struct {
	client   *gh.Client
	token    string
	tokenEnv string
	perPage  int
	syntax   locator.Syntax
}

func (p *GitHubProvider) Platform() locator.Platform {
	return locator.GitHub
}

func (p *GitHubProvider) CredentialName() string {
	return p.tokenEnv
}

func (p *GitHubProvider) CheckCredentials() error {
	if strings.TrimSpace(p.token) == "" {
		return fault.MissingEnv(p.tokenEnv, "GitHub personal access token")
	}
	return nil
}

func syntax(host string) locator.Syntax {
	return locator.Syntax{
		Platform: locator.GitHub,
		Host:     host,
		Keywords: map[string]locator.Kind{
			"pull":    locator.KindPullRequest,
			"pulls":   locator.KindPullRequest,
			"issues":  locator.KindIssue,
			"commit":  locator.KindCommit,
			"commits": locator.KindCommit,
		},
		NamespaceDepth: 2,
		MinSegments:    4,
		Example:        "https://" + host + "/owner/repo/pull/123",
	}
}

// Parse accepts pull request, issue and commit URLs or owner/repo/kind/id
// paths.
func (p *GitHubProvider) Parse(input string) (locator.Locator, error) {
	loc, err := locator.Parse(p.syntax, input)
	if err != nil {
		return loc, err
	}
	if strings.Count(loc.Namespace, "/") != 1 {
		return locator.Locator{}, fault.InputFormat("Invalid GitHub repository %q. Expected format: %s", loc.Namespace, p.syntax.Example)
	}
	return loc, nil
}

// Resolve fetches and normalizes the resource behind loc.
func (p *GitHubProvider) Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error) {
	pl, err := p.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	return normalizePayload(loc, pl), nil
}
