package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v72/github"
)

// GitHubConfig holds the settings of the [providers.github] section plus the
// token read from the environment.
type GitHubConfig struct {
	APIURL   string
	Host     string
	Token    string
	TokenEnv string
	PerPage  int
}

// New creates a GitHub provider. httpClient carries timeouts and pacing.
func New(config GitHubConfig, httpClient *http.Client) (*GitHubProvider, error) {
	client := gh.NewClient(httpClient)
	if config.Token != "" {
		client = client.WithAuthToken(config.Token)
	}
	if config.APIURL != "" {
		base := config.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github api_url %q: %w", config.APIURL, err)
		}
		client.BaseURL = u
	}
	if config.Host == "" {
		config.Host = "github.com"
	}
	if config.TokenEnv == "" {
		config.TokenEnv = "GITHUB_TOKEN"
	}
	if config.PerPage <= 0 {
		config.PerPage = 100
	}
	return &GitHubProvider{
		client:   client,
		token:    config.Token,
		tokenEnv: config.TokenEnv,
		perPage:  config.PerPage,
		syntax:   syntax(config.Host),
	}, nil
}
