package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/pkg/models"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GitLabProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New(GitLabConfig{URL: server.URL, Token: "glpat-test"}, server.Client())
	require.NoError(t, err)
	return p
}

func TestResolveIssue(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "glpat-test", r.Header.Get("Private-Token"))
		w.Header().Set("Content-Type", "application/json")
		// Path is decoded, RawPath keeps group%2Fproj
		switch r.URL.Path {
		case "/api/v4/projects/group/proj/issues/7":
			io.WriteString(w, `{"id":70,"iid":7,"title":"Crash on start","state":"opened","description":"",
				"web_url":"https://gitlab.example.com/group/proj/-/issues/7",
				"author":{"name":"Alice","username":"alice"},
				"assignees":[{"username":"bob"}],"labels":["bug"],
				"created_at":"2024-01-02T03:04:05Z"}`)
		case "/api/v4/projects/group/proj/issues/7/notes":
			w.Header().Set("X-Total", "3")
			io.WriteString(w, `[{"body":"added ~bug label","system":true,"author":{"username":"bot"}},
				{"body":"Seen it too","author":{"name":"Carol"},"created_at":"2024-01-03T00:00:00Z"}]`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	loc, err := p.Parse("group/proj/issues/7")
	require.NoError(t, err)
	rec, err := p.Resolve(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, "Issue", rec.ResourceType)
	assert.Equal(t, "Crash on start", rec.Title)
	assert.Equal(t, "opened", rec.State)
	assert.Equal(t, models.NoDescription, rec.Description)
	assert.Equal(t, models.Person{Name: "Alice", Email: models.NoEmail}, rec.Author)
	assert.Equal(t, []string{"bob"}, rec.Assignees)
	assert.Equal(t, []string{"bug"}, rec.Labels)
	assert.Equal(t, "2024-01-02T03:04:05Z", rec.CreatedAt)
	assert.Equal(t, models.Unknown, rec.UpdatedAt)
	require.Len(t, rec.Comments, 1)
	assert.Equal(t, "Carol", rec.Comments[0].Author)
	assert.Equal(t, 2, rec.TotalComments)
	assert.Equal(t, 1, rec.OmittedComments)
}

func TestResolveMergeRequest(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/group/proj/merge_requests/15":
			io.WriteString(w, `{"iid":15,"title":"Add cache","state":"merged","source_branch":"cache","target_branch":"main",
				"merged_at":"2024-04-01T00:00:00Z","author":{"username":"dave"},"changes_count":"2"}`)
		case "/api/v4/projects/group/proj/merge_requests/15/diffs":
			io.WriteString(w, `[{"old_path":"a.go","new_path":"a.go","diff":"@@ -1,2 +1,3 @@\n ctx\n-old\n+new\n+more\n"},
				{"old_path":"b.go","new_path":"b.go","new_file":true,"diff":"@@ -0,0 +1 @@\n+package b\n"}]`)
		case "/api/v4/projects/group/proj/merge_requests/15/notes":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"404 Not found"}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	loc, err := p.Parse(p.syntax.Host + "/group/proj/-/merge_requests/15")
	require.NoError(t, err)
	rec, err := p.Resolve(context.Background(), loc)
	require.NoError(t, err)

	assert.True(t, rec.Merged)
	assert.Equal(t, "2024-04-01T00:00:00Z", rec.MergedAt)
	assert.Equal(t, "cache", rec.SourceBranch)
	assert.Equal(t, "main", rec.TargetBranch)
	assert.Equal(t, "dave", rec.Author.Name)
	assert.Equal(t, []models.FileChange{
		{Path: "a.go", Additions: 2, Deletions: 1, Status: "modified"},
		{Path: "b.go", Additions: 1, Deletions: 0, Status: "added"},
	}, rec.FilesChanged)
	assert.Equal(t, 3, rec.TotalAdditions)
	assert.Equal(t, 1, rec.TotalDeletions)
	assert.Equal(t, models.StatsComputed, rec.StatsSource)
	assert.Empty(t, rec.Comments)
}

func TestResolveIssueWithoutID(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"iid":7,"title":"No id"}`)
	})

	_, err := p.Resolve(context.Background(), locator.Locator{Namespace: "group/proj", Kind: locator.KindIssue, RawKind: "issues", ID: "7"})
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindDecode, fe.Kind)
	assert.Equal(t, "gitlab.issue", fe.Op)
}

func TestResolveOpenMergeRequestKeepsKindFields(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/group/proj/merge_requests/16":
			io.WriteString(w, `{"id":160,"iid":16,"title":"Draft","state":"opened"}`)
		case "/api/v4/projects/group/proj/merge_requests/16/diffs",
			"/api/v4/projects/group/proj/merge_requests/16/notes":
			io.WriteString(w, `[]`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	rec, err := p.Resolve(context.Background(), locator.Locator{Namespace: "group/proj", Kind: locator.KindMergeRequest, RawKind: "merge_requests", ID: "16"})
	require.NoError(t, err)

	assert.False(t, rec.Merged)
	assert.Equal(t, models.Unknown, rec.SourceBranch)
	assert.Equal(t, models.Unknown, rec.TargetBranch)
	assert.Equal(t, models.Unknown, rec.MergedAt)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"source_branch", "target_branch", "merged_at"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "topic")
	assert.NotContains(t, fields, "sha")
}

func TestResolveCommitReportsOmittedFiles(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/group/proj/repository/commits/abcdef1":
			assert.Equal(t, "true", r.URL.Query().Get("stats"))
			io.WriteString(w, `{"id":"abcdef1234567890","title":"Refactor","message":"Refactor\n\nDetails",
				"author_name":"Erin","author_email":"erin@example.com","stats":{"additions":120,"deletions":40,"total":160}}`)
		case "/api/v4/projects/group/proj/repository/commits/abcdef1/diff":
			w.Header().Set("X-Total", "25")
			diffs := make([]string, 0, 10)
			for i := 0; i < 10; i++ {
				diffs = append(diffs, fmt.Sprintf(`{"old_path":"f%d.go","new_path":"f%d.go","diff":"@@ -1 +1 @@\n-a\n+b\n"}`, i, i))
			}
			io.WriteString(w, "["+strings.Join(diffs, ",")+"]")
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	rec, err := p.Resolve(context.Background(), locator.Locator{Platform: locator.GitLab, Namespace: "group/proj", Kind: locator.KindCommit, RawKind: "commit", ID: "abcdef1"})
	require.NoError(t, err)

	assert.Len(t, rec.FilesChanged, 10)
	assert.Equal(t, 25, rec.TotalFiles)
	assert.Equal(t, 15, rec.OmittedFiles)
	assert.Equal(t, 120, rec.TotalAdditions)
	assert.Equal(t, 40, rec.TotalDeletions)
	assert.Equal(t, models.StatsPlatform, rec.StatsSource)
	assert.Equal(t, "abcdef1234567890", rec.SHA)
	assert.Equal(t, "erin@example.com", rec.Author.Email)
}

func TestResolveErrors(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/group/proj/issues/404", "/api/v4/projects/group/proj/epics/9":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"404 Not found"}`)
		case "/api/v4/projects/group/proj/issues/401":
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"401 Unauthorized"}`)
		case "/api/v4/projects/group/proj/issues/500":
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message":"boom"}`)
		case "/api/v4/projects/group/proj/wikis/2":
			io.WriteString(w, `{"slug":"home"}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()
	issue := func(id string) locator.Locator {
		return locator.Locator{Namespace: "group/proj", Kind: locator.KindIssue, RawKind: "issues", ID: id}
	}

	_, err := p.Resolve(ctx, issue("404"))
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))

	_, err = p.Resolve(ctx, issue("401"))
	assert.Equal(t, fault.KindAuthentication, fault.KindOf(err))

	_, err = p.Resolve(ctx, issue("500"))
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindUpstream, fe.Kind)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)

	_, err = p.Resolve(ctx, locator.Locator{Namespace: "group/proj", Kind: locator.KindUnknown, RawKind: "epics", ID: "9"})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))

	_, err = p.Resolve(ctx, locator.Locator{Namespace: "group/proj", Kind: locator.KindUnknown, RawKind: "wikis", ID: "2"})
	fe, ok = fault.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.Message, "unsupported resource kind")
}

func TestCheckCredentials(t *testing.T) {
	p, err := New(GitLabConfig{}, http.DefaultClient)
	require.NoError(t, err)

	err = p.CheckCredentials()
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindConfiguration, fe.Kind)
	assert.Equal(t, "GITLAB_TOKEN environment variable not set. Please set it to your GitLab personal access token.", fe.Message)
	assert.Equal(t, "gitlab.cee.redhat.com", p.syntax.Host)
}

func TestParseDropsSeparator(t *testing.T) {
	p, err := New(GitLabConfig{URL: "https://gitlab.example.com", Token: "x"}, http.DefaultClient)
	require.NoError(t, err)

	fromURL, err := p.Parse("https://gitlab.example.com/group/proj/-/issues/7")
	require.NoError(t, err)
	fromPath, err := p.Parse("group/proj/-/issues/7")
	require.NoError(t, err)
	assert.Equal(t, fromURL, fromPath)
	assert.Equal(t, "group/proj", fromPath.Namespace)
}
