package review

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbridge/internal/config"
	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/metrics"
	"github.com/reviewbridge/pkg/models"
)

func testConfig(upstream string) *config.Config {
	return &config.Config{
		General: config.GeneralConfig{
			Timeout:          5 * time.Second,
			PerPage:          100,
			DisplayFiles:     10,
			DisplayComments:  5,
			DescriptionLimit: 500,
		},
		Providers: config.ProvidersConfig{
			GitHub: config.GitHubSettings{APIURL: upstream, Host: "github.com", TokenEnv: "GITHUB_TOKEN"},
			GitLab: config.GitLabSettings{URL: upstream, TokenEnv: "GITLAB_TOKEN"},
			Gerrit: config.GerritSettings{URL: upstream, UsernameEnv: "GERRIT_USERNAME", PasswordEnv: "GERRIT_HTTP_PASSWORD"},
			Jira:   config.JiraSettings{URLEnv: "JIRA_URL", TokenEnv: "JIRA_API_TOKEN"},
		},
	}
}

func newTestService(t *testing.T, creds config.Credentials, handler http.HandlerFunc) (*Service, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	svc, err := NewServiceFromConfig(testConfig(server.URL), creds)
	require.NoError(t, err)
	return svc, &hits
}

func TestRunGitHubPullRequest(t *testing.T) {
	svc, _ := newTestService(t, config.Credentials{GitHubToken: "gh"}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget/pulls/42":
			io.WriteString(w, `{"number":42,"title":"Fix bug","state":"open","user":{"login":"alice"},
				"html_url":"https://github.com/acme/widget/pull/42"}`)
		case "/repos/acme/widget/pulls/42/files":
			io.WriteString(w, `[{"filename":"a.go","status":"modified","additions":10,"deletions":3},
				{"filename":"b.go","status":"modified","additions":1,"deletions":1}]`)
		default:
			io.WriteString(w, `[]`)
		}
	})

	env := svc.Run(context.Background(), locator.GitHub, "https://github.com/acme/widget/pull/42")
	require.False(t, env.Failed(), env.Error)
	assert.Equal(t, 11, env.TotalAdditions)
	assert.Equal(t, 4, env.TotalDeletions)
	assert.Equal(t, 2, env.TotalFiles)
	assert.Contains(t, env.ReviewPrompt, "PR #42")
	assert.Contains(t, env.ReviewPrompt, "Fix bug")

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "Fix bug", fields["title"])
	assert.EqualValues(t, 11, fields["total_additions"])
	assert.NotEmpty(t, fields["review_prompt"])
	assert.NotContains(t, fields, "error")
	assert.NotContains(t, fields, "instructions")
}

func TestRunMissingTokenMakesNoCalls(t *testing.T) {
	before := testutil.ToFloat64(metrics.Invocations.WithLabelValues("gitlab", "configuration"))

	svc, hits := newTestService(t, config.Credentials{}, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	env := svc.Run(context.Background(), locator.GitLab, "group/proj/issues/7")
	require.True(t, env.Failed())
	assert.Contains(t, env.Error, "GITLAB_TOKEN")
	assert.Contains(t, env.Instructions, "export GITLAB_TOKEN=")
	assert.Nil(t, env.Record)
	assert.Zero(t, atomic.LoadInt64(hits))

	after := testutil.ToFloat64(metrics.Invocations.WithLabelValues("gitlab", "configuration"))
	assert.Equal(t, before+1, after)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 2, "failure envelopes carry only error and instructions")
}

func TestRunNotFound(t *testing.T) {
	svc, hits := newTestService(t, config.Credentials{GitLabToken: "gl"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"404 Project Not Found"}`)
	})

	env := svc.Run(context.Background(), locator.GitLab, "group/proj/issues/7")
	require.True(t, env.Failed())
	assert.Equal(t, "Resource not found. Please check the path format and ensure you have access to this issue.", env.Error)
	assert.Empty(t, env.Instructions)
	assert.EqualValues(t, 1, atomic.LoadInt64(hits), "a failed primary call stops the pipeline")
}

func TestRunInputFormat(t *testing.T) {
	svc, hits := newTestService(t, config.Credentials{GitHubToken: "gh"}, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	env := svc.Run(context.Background(), locator.GitHub, "not a url")
	require.True(t, env.Failed())
	assert.Zero(t, atomic.LoadInt64(hits))
}

func TestRunUnsupportedPlatform(t *testing.T) {
	svc := NewService(nil)
	env := svc.Run(context.Background(), locator.Platform("bitbucket"), "x")
	assert.Equal(t, "unsupported platform: bitbucket", env.Error)
}

type stubProvider struct {
	resolve func(context.Context, locator.Locator) (*models.Record, error)
}

func (s stubProvider) Platform() locator.Platform { return locator.Gerrit }
func (s stubProvider) CheckCredentials() error    { return nil }
func (s stubProvider) CredentialName() string     { return "GERRIT_HTTP_PASSWORD" }
func (s stubProvider) Parse(string) (locator.Locator, error) {
	return locator.Locator{Platform: locator.Gerrit, Kind: locator.KindGerritChange, ID: "1"}, nil
}
func (s stubProvider) Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error) {
	return s.resolve(ctx, loc)
}

func TestRunRecoversPanics(t *testing.T) {
	svc := NewService(nil, stubProvider{resolve: func(context.Context, locator.Locator) (*models.Record, error) {
		panic("mapper exploded")
	}})

	var env *Envelope
	require.NotPanics(t, func() {
		env = svc.Run(context.Background(), locator.Gerrit, "1")
	})
	assert.Equal(t, "Unexpected error: mapper exploded", env.Error)
}

func TestFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"authentication", fault.FromStatus("gerrit.change", http.StatusUnauthorized, nil), "Authentication failed. Please check your GERRIT_HTTP_PASSWORD."},
		{"upstream status", fault.FromStatus("gerrit.change", http.StatusBadGateway, []byte("bad gateway")), "API Request Failed: 502 - bad gateway"},
		{"timeout", fault.FromTransport("gerrit.change", context.DeadlineExceeded), "API Request Failed: request timed out"},
		{"decode", fault.DecodeFailure("gerrit.change", errors.New("empty response body")), "Unexpected data format: empty response body"},
		{"unclassified", errors.New("boom"), "Unexpected error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, stubProvider{resolve: func(context.Context, locator.Locator) (*models.Record, error) {
				return nil, tt.err
			}})
			env := svc.Run(context.Background(), locator.Gerrit, "1")
			assert.Equal(t, tt.want, env.Error)
			assert.Nil(t, env.Record)
		})
	}
}
