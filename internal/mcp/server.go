// Package mcp exposes the review pipeline and the Jira browse calls as MCP
// tools over stdio or streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/review"
)

// Name is the implementation name announced to clients.
const Name = "reviewbridge"

// Instructions is sent to clients on initialization.
const Instructions = "Fetches GitHub pull requests, GitLab issues and merge requests, OpenDev Gerrit reviews and Jira issues, " +
	"normalizes them into one record shape and returns a review or analysis prompt alongside the data."

// JiraBrowser serves the Jira tools that return raw JSON rather than an
// envelope.
type JiraBrowser interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]json.RawMessage, error)
	SearchUsers(ctx context.Context, query string, maxResults int) ([]json.RawMessage, error)
	ListProjects(ctx context.Context) ([]json.RawMessage, error)
	GetProject(ctx context.Context, key string) (json.RawMessage, error)
	ProjectComponents(ctx context.Context, key string) ([]json.RawMessage, error)
	ProjectVersions(ctx context.Context, key string) ([]json.RawMessage, error)
	ProjectRoles(ctx context.Context, key string) (json.RawMessage, error)
	ProjectPermissionScheme(ctx context.Context, key string) (json.RawMessage, error)
	ProjectIssueTypes(ctx context.Context, key string) ([]json.RawMessage, error)
	Myself(ctx context.Context) (json.RawMessage, error)
	GetUser(ctx context.Context, accountID string) (json.RawMessage, error)
	AssignableUsersForProject(ctx context.Context, projectKey, query string, maxResults int) ([]json.RawMessage, error)
	AssignableUsersForIssue(ctx context.Context, issueKey, query string, maxResults int) ([]json.RawMessage, error)
	ListBoards(ctx context.Context, maxResults int) ([]json.RawMessage, error)
	GetBoard(ctx context.Context, boardID int) (json.RawMessage, error)
	ListSprints(ctx context.Context, boardID, maxResults int) ([]json.RawMessage, error)
	GetSprint(ctx context.Context, sprintID int) (json.RawMessage, error)
	BoardIssues(ctx context.Context, boardID, maxResults int) ([]json.RawMessage, error)
	SprintIssues(ctx context.Context, boardID, sprintID, maxResults int) ([]json.RawMessage, error)
}

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	service *review.Service
	jira    JiraBrowser
}

// NewServer registers every tool against service. The Jira browse tools are
// registered only when the Jira provider supports them.
func NewServer(service *review.Service, version string) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: Name, Version: version},
			&sdkmcp.ServerOptions{Instructions: Instructions},
		),
		service: service,
	}
	if p, ok := service.Provider(locator.Jira); ok {
		if jb, ok := p.(JiraBrowser); ok {
			s.jira = jb
		}
	}
	s.registerTools()
	return s
}

// RunStdio serves a single client on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
