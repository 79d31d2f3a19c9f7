package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers/jira"
)

const defaultMaxResults = 10

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "github_pr_fetcher",
		Description: "Fetch a GitHub pull request (e.g. https://github.com/owner/repo/pull/123) with its files and comments and return the data with a code review prompt.",
	}, s.handleGitHub)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "gitlab_issue_fetcher",
		Description: "Fetch a GitLab issue, merge request or commit by URL or path (e.g. group/project/issues/123, group/project/-/merge_requests/45) and return the data with an analysis prompt.",
	}, s.handleGitLab)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "gerrit_review_fetcher",
		Description: "Fetch a Gerrit change (e.g. https://review.opendev.org/c/openstack/nova/+/123456) with its files and comments and return the data with a code review prompt.",
	}, s.handleGerrit)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_jira",
		Description: "Fetch a Jira issue by key (e.g. PROJ-123) or browse URL and return the data with an analysis prompt.",
	}, s.handleJira)

	if s.jira == nil {
		return
	}

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "search_issues",
		Description: "Search Jira issues using JQL.",
	}, s.handleSearchIssues)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "search_users",
		Description: "Search Jira users by query.",
	}, s.handleSearchUsers)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all Jira projects.",
	}, s.handleListProjects)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a Jira project by key.",
	}, s.handleGetProject)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project_components",
		Description: "Get the components of a Jira project.",
	}, s.handleProjectComponents)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project_versions",
		Description: "Get the versions of a Jira project.",
	}, s.handleProjectVersions)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project_roles",
		Description: "Get the roles of a Jira project.",
	}, s.handleProjectRoles)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project_permission_scheme",
		Description: "Get the permission scheme of a Jira project.",
	}, s.handleProjectPermissionScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_project_issue_types",
		Description: "Get the issue types of a Jira project.",
	}, s.handleProjectIssueTypes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_current_user",
		Description: "Get the Jira user the token belongs to.",
	}, s.handleCurrentUser)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_user",
		Description: "Get a Jira user by account ID.",
	}, s.handleGetUser)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_assignable_users_for_project",
		Description: "Get the users that can be assigned issues in a Jira project.",
	}, s.handleAssignableForProject)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_assignable_users_for_issue",
		Description: "Get the users that can be assigned a Jira issue.",
	}, s.handleAssignableForIssue)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_boards",
		Description: "List Jira agile boards.",
	}, s.handleListBoards)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_board",
		Description: "Get a Jira agile board by ID.",
	}, s.handleGetBoard)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_sprints",
		Description: "List the sprints of a Jira board.",
	}, s.handleListSprints)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_sprint",
		Description: "Get a Jira sprint by ID.",
	}, s.handleGetSprint)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_issues_for_board",
		Description: "Get the issues on a Jira board.",
	}, s.handleBoardIssues)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_issues_for_sprint",
		Description: "Get the issues of a sprint in a Jira board.",
	}, s.handleSprintIssues)
}

// --- Tool input types ---

type githubInput struct {
	PRURL string `json:"pr_url" jsonschema:"full URL of the GitHub pull request"`
}

type gitlabInput struct {
	IssuePath string `json:"issue_path" jsonschema:"GitLab URL or path such as group/project/issues/123"`
}

type gerritInput struct {
	ReviewURL string `json:"review_url" jsonschema:"Gerrit change URL or project/+/number path"`
}

type jiraInput struct {
	IssueKey string `json:"issue_key" jsonschema:"Jira issue key such as PROJ-123, or a browse URL"`
}

type searchIssuesInput struct {
	JQL        string `json:"jql" jsonschema:"JQL query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of issues (default 10)"`
}

type searchUsersInput struct {
	Query      string `json:"query" jsonschema:"user name or email fragment"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of users (default 10)"`
}

type projectInput struct {
	ProjectKey string `json:"project_key" jsonschema:"Jira project key"`
}

type userInput struct {
	AccountID string `json:"account_id" jsonschema:"Jira account ID"`
}

type assignableProjectInput struct {
	ProjectKey string `json:"project_key" jsonschema:"Jira project key"`
	Query      string `json:"query,omitempty" jsonschema:"optional user name fragment"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of users (default 10)"`
}

type assignableIssueInput struct {
	IssueKey   string `json:"issue_key" jsonschema:"Jira issue key such as PROJ-123"`
	Query      string `json:"query,omitempty" jsonschema:"optional user name fragment"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of users (default 10)"`
}

type pageInput struct {
	MaxResults int `json:"max_results,omitempty" jsonschema:"maximum number of results (default 10)"`
}

type boardInput struct {
	BoardID int `json:"board_id" jsonschema:"Jira board ID"`
}

type boardPageInput struct {
	BoardID    int `json:"board_id" jsonschema:"Jira board ID"`
	MaxResults int `json:"max_results,omitempty" jsonschema:"maximum number of results (default 10)"`
}

type sprintInput struct {
	SprintID int `json:"sprint_id" jsonschema:"Jira sprint ID"`
}

type sprintIssuesInput struct {
	BoardID    int `json:"board_id" jsonschema:"Jira board ID"`
	SprintID   int `json:"sprint_id" jsonschema:"Jira sprint ID"`
	MaxResults int `json:"max_results,omitempty" jsonschema:"maximum number of issues (default 10)"`
}

type emptyInput struct{}

// --- Envelope tools ---

func (s *Server) handleGitHub(ctx context.Context, _ *sdkmcp.CallToolRequest, input githubInput) (*sdkmcp.CallToolResult, any, error) {
	return s.envelope(ctx, locator.GitHub, input.PRURL)
}

func (s *Server) handleGitLab(ctx context.Context, _ *sdkmcp.CallToolRequest, input gitlabInput) (*sdkmcp.CallToolResult, any, error) {
	return s.envelope(ctx, locator.GitLab, input.IssuePath)
}

func (s *Server) handleGerrit(ctx context.Context, _ *sdkmcp.CallToolRequest, input gerritInput) (*sdkmcp.CallToolResult, any, error) {
	return s.envelope(ctx, locator.Gerrit, input.ReviewURL)
}

func (s *Server) handleJira(ctx context.Context, _ *sdkmcp.CallToolRequest, input jiraInput) (*sdkmcp.CallToolResult, any, error) {
	return s.envelope(ctx, locator.Jira, input.IssueKey)
}

// envelope runs the pipeline. Failures are part of the envelope, so the tool
// result is never flagged as an error. The envelope goes out twice: indented
// text for the model and structured content for the client.
func (s *Server) envelope(ctx context.Context, platform locator.Platform, input string) (*sdkmcp.CallToolResult, any, error) {
	env := s.service.Run(ctx, platform, input)
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return text(string(data)), env, nil
}

// --- Jira browse tools ---

func (s *Server) handleSearchIssues(ctx context.Context, _ *sdkmcp.CallToolRequest, input searchIssuesInput) (*sdkmcp.CallToolResult, any, error) {
	issues, err := s.jira.SearchIssues(ctx, input.JQL, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("JQL search failed: %w", err)
	}
	return text(jira.Markdown(issues...)), nil, nil
}

func (s *Server) handleSearchUsers(ctx context.Context, _ *sdkmcp.CallToolRequest, input searchUsersInput) (*sdkmcp.CallToolResult, any, error) {
	users, err := s.jira.SearchUsers(ctx, input.Query, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search users: %w", err)
	}
	return text(jira.Markdown(users...)), nil, nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
	projects, err := s.jira.ListProjects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return text(jira.Markdown(projects...)), nil, nil
}

func (s *Server) handleGetProject(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	project, err := s.jira.GetProject(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return text(jira.Markdown(project)), nil, nil
}

func (s *Server) handleProjectComponents(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	components, err := s.jira.ProjectComponents(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch components: %w", err)
	}
	return text(jira.Markdown(components...)), nil, nil
}

func (s *Server) handleProjectVersions(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	versions, err := s.jira.ProjectVersions(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch versions: %w", err)
	}
	return text(jira.Markdown(versions...)), nil, nil
}

func (s *Server) handleProjectRoles(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	roles, err := s.jira.ProjectRoles(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return text(jira.Markdown(roles)), nil, nil
}

func (s *Server) handleProjectPermissionScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	scheme, err := s.jira.ProjectPermissionScheme(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch permission scheme: %w", err)
	}
	return text(jira.Markdown(scheme)), nil, nil
}

func (s *Server) handleProjectIssueTypes(ctx context.Context, _ *sdkmcp.CallToolRequest, input projectInput) (*sdkmcp.CallToolResult, any, error) {
	types, err := s.jira.ProjectIssueTypes(ctx, input.ProjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch issue types: %w", err)
	}
	return text(jira.Markdown(types...)), nil, nil
}

func (s *Server) handleCurrentUser(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
	user, err := s.jira.Myself(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return text(jira.Markdown(user)), nil, nil
}

func (s *Server) handleGetUser(ctx context.Context, _ *sdkmcp.CallToolRequest, input userInput) (*sdkmcp.CallToolResult, any, error) {
	user, err := s.jira.GetUser(ctx, input.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return text(jira.Markdown(user)), nil, nil
}

func (s *Server) handleAssignableForProject(ctx context.Context, _ *sdkmcp.CallToolRequest, input assignableProjectInput) (*sdkmcp.CallToolResult, any, error) {
	users, err := s.jira.AssignableUsersForProject(ctx, input.ProjectKey, input.Query, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assignable users: %w", err)
	}
	return text(jira.Markdown(users...)), nil, nil
}

func (s *Server) handleAssignableForIssue(ctx context.Context, _ *sdkmcp.CallToolRequest, input assignableIssueInput) (*sdkmcp.CallToolResult, any, error) {
	users, err := s.jira.AssignableUsersForIssue(ctx, input.IssueKey, input.Query, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assignable users: %w", err)
	}
	return text(jira.Markdown(users...)), nil, nil
}

func (s *Server) handleListBoards(ctx context.Context, _ *sdkmcp.CallToolRequest, input pageInput) (*sdkmcp.CallToolResult, any, error) {
	boards, err := s.jira.ListBoards(ctx, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch boards: %w", err)
	}
	return text(jira.Markdown(boards...)), nil, nil
}

func (s *Server) handleGetBoard(ctx context.Context, _ *sdkmcp.CallToolRequest, input boardInput) (*sdkmcp.CallToolResult, any, error) {
	board, err := s.jira.GetBoard(ctx, input.BoardID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch board: %w", err)
	}
	return text(jira.Markdown(board)), nil, nil
}

func (s *Server) handleListSprints(ctx context.Context, _ *sdkmcp.CallToolRequest, input boardPageInput) (*sdkmcp.CallToolResult, any, error) {
	sprints, err := s.jira.ListSprints(ctx, input.BoardID, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch sprints: %w", err)
	}
	return text(jira.Markdown(sprints...)), nil, nil
}

func (s *Server) handleGetSprint(ctx context.Context, _ *sdkmcp.CallToolRequest, input sprintInput) (*sdkmcp.CallToolResult, any, error) {
	sprint, err := s.jira.GetSprint(ctx, input.SprintID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch sprint: %w", err)
	}
	return text(jira.Markdown(sprint)), nil, nil
}

func (s *Server) handleBoardIssues(ctx context.Context, _ *sdkmcp.CallToolRequest, input boardPageInput) (*sdkmcp.CallToolResult, any, error) {
	issues, err := s.jira.BoardIssues(ctx, input.BoardID, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch issues for board: %w", err)
	}
	return text(jira.Markdown(issues...)), nil, nil
}

func (s *Server) handleSprintIssues(ctx context.Context, _ *sdkmcp.CallToolRequest, input sprintIssuesInput) (*sdkmcp.CallToolResult, any, error) {
	issues, err := s.jira.SprintIssues(ctx, input.BoardID, input.SprintID, maxResults(input.MaxResults))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch issues for sprint: %w", err)
	}
	return text(jira.Markdown(issues...)), nil, nil
}

func maxResults(n int) int {
	if n <= 0 {
		return defaultMaxResults
	}
	return n
}

func text(s string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: s}},
	}
}
