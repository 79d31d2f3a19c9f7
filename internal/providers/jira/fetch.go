package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/rs/zerolog"

	"github.com/reviewbridge/internal/fault"
)

const (
	apiPrefix   = "rest/api/2"
	agilePrefix = "rest/agile/1.0"
)

// issueFields is what the issue tool asks Jira for.
const issueFields = "summary,description,status,issuetype,priority,assignee,reporter,creator,labels,created,updated,comment"

// maxErrorBody caps how much of a failed answer is read.
const maxErrorBody = 64 << 10

// The issue is decoded into a local shape rather than gojira.Issue: the
// comment total is needed for the omitted count and the SDK drops it.
type user struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type named struct {
	Name string `json:"name"`
}

type comment struct {
	Author  user   `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

type issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		Status      named    `json:"status"`
		IssueType   named    `json:"issuetype"`
		Priority    *named   `json:"priority"`
		Assignee    *user    `json:"assignee"`
		Reporter    *user    `json:"reporter"`
		Creator     *user    `json:"creator"`
		Labels      []string `json:"labels"`
		Created     string   `json:"created"`
		Updated     string   `json:"updated"`
		Comment     struct {
			Comments []comment `json:"comments"`
			Total    int       `json:"total"`
		} `json:"comment"`
	} `json:"fields"`
}

func (p *Provider) fetchIssue(ctx context.Context, key string) (*issue, error) {
	zerolog.Ctx(ctx).Debug().Str("key", key).Msg("Fetching Jira issue")

	var is issue
	q := url.Values{"fields": {issueFields}}
	if err := p.get(ctx, "jira.issue", api("issue", key), q, &is); err != nil {
		return nil, err
	}
	return &is, nil
}

// SearchIssues runs a JQL query and returns the raw issues.
func (p *Provider) SearchIssues(ctx context.Context, jql string, maxResults int) ([]json.RawMessage, error) {
	var res struct {
		Issues []json.RawMessage `json:"issues"`
	}
	q := url.Values{"jql": {jql}, "maxResults": {strconv.Itoa(maxResults)}}
	if err := p.get(ctx, "jira.search", api("search"), q, &res); err != nil {
		return nil, err
	}
	return res.Issues, nil
}

// SearchUsers finds users by name or email fragment.
func (p *Provider) SearchUsers(ctx context.Context, query string, maxResults int) ([]json.RawMessage, error) {
	return p.list(ctx, "jira.user_search", api("user", "search"), userQuery(query, maxResults))
}

// ListProjects returns every project visible to the token.
func (p *Provider) ListProjects(ctx context.Context) ([]json.RawMessage, error) {
	return p.list(ctx, "jira.projects", api("project"), nil)
}

// GetProject returns one project.
func (p *Provider) GetProject(ctx context.Context, key string) (json.RawMessage, error) {
	return p.one(ctx, "jira.project", api("project", key), nil)
}

// ProjectComponents lists the components of a project.
func (p *Provider) ProjectComponents(ctx context.Context, key string) ([]json.RawMessage, error) {
	return p.list(ctx, "jira.project.components", api("project", key, "components"), nil)
}

// ProjectVersions lists the versions of a project.
func (p *Provider) ProjectVersions(ctx context.Context, key string) ([]json.RawMessage, error) {
	return p.list(ctx, "jira.project.versions", api("project", key, "versions"), nil)
}

// ProjectRoles maps each role name of a project to its resource URL.
func (p *Provider) ProjectRoles(ctx context.Context, key string) (json.RawMessage, error) {
	return p.one(ctx, "jira.project.roles", api("project", key, "role"), nil)
}

// ProjectPermissionScheme returns the permission scheme bound to a project.
func (p *Provider) ProjectPermissionScheme(ctx context.Context, key string) (json.RawMessage, error) {
	return p.one(ctx, "jira.project.permissionscheme", api("project", key, "permissionscheme"), nil)
}

// ProjectIssueTypes lists the issue types a project accepts. They come with
// the project itself.
func (p *Provider) ProjectIssueTypes(ctx context.Context, key string) ([]json.RawMessage, error) {
	var res struct {
		IssueTypes []json.RawMessage `json:"issueTypes"`
	}
	if err := p.get(ctx, "jira.project.issuetypes", api("project", key), nil, &res); err != nil {
		return nil, err
	}
	return res.IssueTypes, nil
}

// Myself returns the user that owns the token.
func (p *Provider) Myself(ctx context.Context) (json.RawMessage, error) {
	return p.one(ctx, "jira.myself", api("myself"), nil)
}

// GetUser returns one user by account ID.
func (p *Provider) GetUser(ctx context.Context, accountID string) (json.RawMessage, error) {
	return p.one(ctx, "jira.user", api("user"), url.Values{"accountId": {accountID}})
}

// AssignableUsersForProject lists users that can be assigned issues in a
// project, optionally filtered by query.
func (p *Provider) AssignableUsersForProject(ctx context.Context, projectKey, query string, maxResults int) ([]json.RawMessage, error) {
	q := userQuery(query, maxResults)
	q.Set("projectKeys", projectKey)
	return p.list(ctx, "jira.user.assignable.project", api("user", "assignable", "multiProjectSearch"), q)
}

// AssignableUsersForIssue lists users that can be assigned an issue,
// optionally filtered by query.
func (p *Provider) AssignableUsersForIssue(ctx context.Context, issueKey, query string, maxResults int) ([]json.RawMessage, error) {
	q := userQuery(query, maxResults)
	q.Set("issueKey", issueKey)
	return p.list(ctx, "jira.user.assignable.issue", api("user", "assignable", "search"), q)
}

// ListBoards lists agile boards.
func (p *Provider) ListBoards(ctx context.Context, maxResults int) ([]json.RawMessage, error) {
	return p.page(ctx, "jira.boards", agile("board"), maxResults)
}

// GetBoard returns one agile board.
func (p *Provider) GetBoard(ctx context.Context, boardID int) (json.RawMessage, error) {
	return p.one(ctx, "jira.board", agile("board", strconv.Itoa(boardID)), nil)
}

// ListSprints lists the sprints of a board.
func (p *Provider) ListSprints(ctx context.Context, boardID, maxResults int) ([]json.RawMessage, error) {
	return p.page(ctx, "jira.board.sprints", agile("board", strconv.Itoa(boardID), "sprint"), maxResults)
}

// GetSprint returns one sprint.
func (p *Provider) GetSprint(ctx context.Context, sprintID int) (json.RawMessage, error) {
	return p.one(ctx, "jira.sprint", agile("sprint", strconv.Itoa(sprintID)), nil)
}

// BoardIssues lists the issues on a board.
func (p *Provider) BoardIssues(ctx context.Context, boardID, maxResults int) ([]json.RawMessage, error) {
	return p.issues(ctx, "jira.board.issues", agile("board", strconv.Itoa(boardID), "issue"), maxResults)
}

// SprintIssues lists the issues of a sprint within a board.
func (p *Provider) SprintIssues(ctx context.Context, boardID, sprintID, maxResults int) ([]json.RawMessage, error) {
	path := agile("board", strconv.Itoa(boardID), "sprint", strconv.Itoa(sprintID), "issue")
	return p.issues(ctx, "jira.sprint.issues", path, maxResults)
}

func (p *Provider) one(ctx context.Context, op, path string, query url.Values) (json.RawMessage, error) {
	var res json.RawMessage
	if err := p.get(ctx, op, path, query, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Provider) list(ctx context.Context, op, path string, query url.Values) ([]json.RawMessage, error) {
	var res []json.RawMessage
	if err := p.get(ctx, op, path, query, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// page reads the values of one agile API page.
func (p *Provider) page(ctx context.Context, op, path string, maxResults int) ([]json.RawMessage, error) {
	var res struct {
		Values []json.RawMessage `json:"values"`
	}
	if err := p.get(ctx, op, path, url.Values{"maxResults": {strconv.Itoa(maxResults)}}, &res); err != nil {
		return nil, err
	}
	return res.Values, nil
}

func (p *Provider) issues(ctx context.Context, op, path string, maxResults int) ([]json.RawMessage, error) {
	var res struct {
		Issues []json.RawMessage `json:"issues"`
	}
	if err := p.get(ctx, op, path, url.Values{"maxResults": {strconv.Itoa(maxResults)}}, &res); err != nil {
		return nil, err
	}
	return res.Issues, nil
}

// get sends a GET through go-jira and decodes the answer into v.
func (p *Provider) get(ctx context.Context, op, path string, query url.Values, v any) error {
	if err := p.CheckCredentials(); err != nil {
		return err
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req, err := p.client.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fault.InputFormat("Invalid Jira request path %q: %v", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req, v)
	if err != nil {
		return classify(op, resp, err)
	}
	return nil
}

// classify converts a go-jira error into the fault taxonomy. On a non-2xx
// answer go-jira leaves the body unread.
func classify(op string, resp *gojira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fault.FromTransport(op, err)
	}
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return fault.DecodeFailure(op, err)
	}

	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
	}
	fe := fault.FromStatus(op, status, []byte(errorMessage(body)))
	fe.Err = err
	return fe
}

// errorMessage prefers the messages of a Jira error document over the raw
// body.
func errorMessage(body []byte) string {
	var je gojira.Error
	if json.Unmarshal(body, &je) == nil {
		msgs := append([]string{}, je.ErrorMessages...)
		fields := make([]string, 0, len(je.Errors))
		for field := range je.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			msgs = append(msgs, field+": "+je.Errors[field])
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return string(body)
}

func userQuery(query string, maxResults int) url.Values {
	// Data Center matches on "username", Cloud on "query".
	return url.Values{"username": {query}, "query": {query}, "maxResults": {strconv.Itoa(maxResults)}}
}

func api(segments ...string) string {
	return join(apiPrefix, segments)
}

func agile(segments ...string) string {
	return join(agilePrefix, segments)
}

func join(prefix string, segments []string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, prefix)
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}
