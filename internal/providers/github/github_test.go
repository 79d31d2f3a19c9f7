package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/pkg/models"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GitHubProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New(GitHubConfig{APIURL: server.URL, Token: "test-token"}, server.Client())
	require.NoError(t, err)
	return p
}

func TestResolvePullRequest(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /repos/acme/widget/pulls/42":
			io.WriteString(w, `{"number":42,"title":"Fix bug","state":"open","user":{"login":"alice"},
				"head":{"ref":"fix"},"base":{"ref":"main"},"html_url":"https://github.com/acme/widget/pull/42",
				"created_at":"2024-05-01T10:00:00Z"}`)
		case "GET /repos/acme/widget/pulls/42/files":
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			io.WriteString(w, `[{"filename":"a.go","status":"modified","additions":10,"deletions":3},
				{"filename":"b.go","status":"modified","additions":1,"deletions":1}]`)
		case "GET /repos/acme/widget/pulls/42/comments":
			io.WriteString(w, `[{"user":{"login":"bob"},"body":"nit","path":"a.go","line":4}]`)
		case "GET /repos/acme/widget/issues/42/comments":
			io.WriteString(w, `[]`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	loc, err := p.Parse("https://github.com/acme/widget/pull/42")
	require.NoError(t, err)
	rec, err := p.Resolve(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, "Fix bug", rec.Title)
	assert.Equal(t, "pull_request", rec.Kind)
	assert.Equal(t, models.Person{Name: "alice", Email: models.NoEmail}, rec.Author)
	assert.Equal(t, models.NoDescription, rec.Description)
	assert.Equal(t, "2024-05-01T10:00:00Z", rec.CreatedAt)
	assert.Equal(t, models.Unknown, rec.UpdatedAt)
	assert.Equal(t, "fix", rec.SourceBranch)
	assert.Equal(t, 2, rec.TotalFiles)
	assert.Equal(t, 11, rec.TotalAdditions)
	assert.Equal(t, 4, rec.TotalDeletions)
	assert.Equal(t, models.StatsComputed, rec.StatsSource)
	require.Len(t, rec.Comments, 1)
	assert.Equal(t, models.Comment{Author: "bob", Body: "nit", CreatedAt: models.Unknown, Path: "a.go", Line: 4}, rec.Comments[0])
}

func TestResolvePullRequestPrefersPlatformTotals(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget/pulls/7":
			io.WriteString(w, `{"number":7,"title":"Merged","state":"closed","merged":true,"merged_at":"2024-05-02T00:00:00Z",
				"additions":500,"deletions":20,"changed_files":3,"comments":4,"review_comments":0}`)
		case "/repos/acme/widget/pulls/7/files":
			io.WriteString(w, `[{"filename":"a.go","additions":1,"deletions":1}]`)
		default:
			io.WriteString(w, `[]`)
		}
	})

	rec, err := p.Resolve(context.Background(), locator.Locator{Platform: locator.GitHub, Namespace: "acme/widget", Kind: locator.KindPullRequest, RawKind: "pull", ID: "7"})
	require.NoError(t, err)
	assert.True(t, rec.Merged)
	assert.Equal(t, "2024-05-02T00:00:00Z", rec.MergedAt)
	assert.Equal(t, 500, rec.TotalAdditions)
	assert.Equal(t, models.StatsPlatform, rec.StatsSource)
	assert.Equal(t, 3, rec.TotalFiles)
	assert.Equal(t, 2, rec.OmittedFiles)
	assert.Equal(t, "modified", rec.FilesChanged[0].Status)
	assert.Equal(t, 4, rec.TotalComments)
}

func TestAuxiliaryNotFoundDegrades(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget/pulls/42" {
			io.WriteString(w, `{"number":42,"title":"Fix bug"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
	})

	rec, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindPullRequest, ID: "42"})
	require.NoError(t, err)
	assert.Empty(t, rec.FilesChanged)
	assert.Empty(t, rec.Comments)
	assert.Zero(t, rec.TotalAdditions)
}

func TestResolvePullRequestWithoutRefs(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget/pulls/43" {
			io.WriteString(w, `{"number":43,"title":"Detached","state":"open"}`)
			return
		}
		io.WriteString(w, `[]`)
	})

	rec, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindPullRequest, ID: "43"})
	require.NoError(t, err)
	assert.Equal(t, models.Unknown, rec.SourceBranch)
	assert.Equal(t, models.Unknown, rec.TargetBranch)
	assert.Equal(t, models.Unknown, rec.MergedAt)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"source_branch", "target_branch", "merged_at"} {
		assert.Equal(t, models.Unknown, fields[key], key)
	}
	assert.NotContains(t, fields, "commit_message")
}

func TestAuxiliaryAuthFailureIsFatal(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget/pulls/42" {
			io.WriteString(w, `{"number":42}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Bad credentials"}`)
	})

	_, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindPullRequest, ID: "42"})
	require.Error(t, err)
	assert.Equal(t, fault.KindAuthentication, fault.KindOf(err))
}

func TestResolveNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
	})

	_, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindIssue, ID: "9"})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))

	_, err = p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindUnknown, RawKind: "discussions", ID: "5"})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestResolveUnknownKindAnswered(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget/discussions/5", r.URL.Path)
		io.WriteString(w, `{"id":5}`)
	})

	_, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindUnknown, RawKind: "discussions", ID: "5"})
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindUpstream, fe.Kind)
	assert.Contains(t, fe.Message, "unsupported resource kind")
}

func TestResolveMalformedBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"number":`)
	})

	_, err := p.Resolve(context.Background(), locator.Locator{Namespace: "acme/widget", Kind: locator.KindIssue, ID: "1"})
	assert.Equal(t, fault.KindDecode, fault.KindOf(err))
}

func TestResolveIssueAndCommit(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget/issues/3":
			io.WriteString(w, `{"number":3,"title":"Crash","state":"open","body":"stack trace","comments":1,
				"labels":[{"name":"bug"}],"assignees":[{"login":"carol"}],"user":{"login":"dave","email":"dave@example.com"}}`)
		case "/repos/acme/widget/issues/3/comments":
			io.WriteString(w, `[{"user":{"login":"erin"},"body":"me too","created_at":"2024-01-01T00:00:00Z"}]`)
		case "/repos/acme/widget/commits/abc1234":
			io.WriteString(w, `{"sha":"abc1234def","commit":{"message":"Add feature\n\nLonger body",
				"author":{"name":"Frank","email":"frank@example.com","date":"2024-02-02T00:00:00Z"}},
				"stats":{"additions":5,"deletions":2,"total":7},
				"files":[{"filename":"x.go","status":"added","additions":5,"deletions":2}]}`)
		default:
			t.Fatalf("unexpected request: %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	issue, err := p.Resolve(ctx, locator.Locator{Namespace: "acme/widget", Kind: locator.KindIssue, ID: "3"})
	require.NoError(t, err)
	assert.Equal(t, "stack trace", issue.Description)
	assert.Equal(t, []string{"bug"}, issue.Labels)
	assert.Equal(t, []string{"carol"}, issue.Assignees)
	assert.Equal(t, "dave@example.com", issue.Author.Email)
	assert.Equal(t, 1, issue.TotalComments)
	assert.Equal(t, "2024-01-01T00:00:00Z", issue.Comments[0].CreatedAt)

	commit, err := p.Resolve(ctx, locator.Locator{Namespace: "acme/widget", Kind: locator.KindCommit, ID: "abc1234"})
	require.NoError(t, err)
	assert.Equal(t, "Add feature", commit.Title)
	assert.Equal(t, "abc1234def", commit.SHA)
	assert.Equal(t, "Frank", commit.Author.Name)
	assert.Equal(t, "2024-02-02T00:00:00Z", commit.CreatedAt)
	assert.Equal(t, 5, commit.TotalAdditions)
	assert.Equal(t, models.StatsPlatform, commit.StatsSource)
	assert.Equal(t, "added", commit.FilesChanged[0].Status)
}

func TestCheckCredentials(t *testing.T) {
	p, err := New(GitHubConfig{}, http.DefaultClient)
	require.NoError(t, err)

	err = p.CheckCredentials()
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindConfiguration, fe.Kind)
	assert.Contains(t, fe.Message, "GITHUB_TOKEN")
	assert.Equal(t, "GITHUB_TOKEN", p.CredentialName())
}

func TestParseRejectsNestedNamespace(t *testing.T) {
	p, err := New(GitHubConfig{Token: "x"}, http.DefaultClient)
	require.NoError(t, err)

	_, err = p.Parse("acme/widget/extra/pull/42")
	assert.Equal(t, fault.KindInputFormat, fault.KindOf(err))

	_, err = p.Parse("https://gitlab.com/acme/widget/pull/42")
	assert.Equal(t, fault.KindInputFormat, fault.KindOf(err))
}
