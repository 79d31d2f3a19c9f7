package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v72/github"
	"github.com/rs/zerolog"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
)

// payload holds the decoded answers of one fetch. Only the fields matching
// the locator kind are set.
type payload struct {
	pr             *gh.PullRequest
	issue          *gh.Issue
	commit         *gh.RepositoryCommit
	files          []*gh.CommitFile
	reviewComments []*gh.PullRequestComment
	issueComments  []*gh.IssueComment
}

func (p *GitHubProvider) fetch(ctx context.Context, loc locator.Locator) (*payload, error) {
	owner, repo, _ := strings.Cut(loc.Namespace, "/")
	zerolog.Ctx(ctx).Debug().Str("owner", owner).Str("repo", repo).Str("kind", loc.Kind.String()).Str("id", loc.ID).Msg("Fetching GitHub resource")

	switch loc.Kind {
	case locator.KindPullRequest:
		number, _ := strconv.Atoi(loc.ID)
		return p.fetchPullRequest(ctx, owner, repo, number)
	case locator.KindIssue:
		number, _ := strconv.Atoi(loc.ID)
		return p.fetchIssue(ctx, owner, repo, number)
	case locator.KindCommit:
		return p.fetchCommit(ctx, owner, repo, loc.ID)
	default:
		return nil, p.fetchUnknown(ctx, loc)
	}
}

func (p *GitHubProvider) fetchPullRequest(ctx context.Context, owner, repo string, number int) (*payload, error) {
	pr, resp, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, classify("github.pull_request", resp, err)
	}
	pl := &payload{pr: pr}

	opts := p.listOptions()
	files, resp, err := p.client.PullRequests.ListFiles(ctx, owner, repo, number, &opts)
	if err := p.auxiliary(ctx, "github.pull_request.files", resp, err); err != nil {
		return nil, err
	}
	pl.files = files

	reviewComments, resp, err := p.client.PullRequests.ListComments(ctx, owner, repo, number,
		&gh.PullRequestListCommentsOptions{ListOptions: p.listOptions()})
	if err := p.auxiliary(ctx, "github.pull_request.review_comments", resp, err); err != nil {
		return nil, err
	}
	pl.reviewComments = reviewComments

	issueComments, resp, err := p.client.Issues.ListComments(ctx, owner, repo, number,
		&gh.IssueListCommentsOptions{ListOptions: p.listOptions()})
	if err := p.auxiliary(ctx, "github.pull_request.comments", resp, err); err != nil {
		return nil, err
	}
	pl.issueComments = issueComments
	return pl, nil
}

func (p *GitHubProvider) fetchIssue(ctx context.Context, owner, repo string, number int) (*payload, error) {
	issue, resp, err := p.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, classify("github.issue", resp, err)
	}
	pl := &payload{issue: issue}

	comments, resp, err := p.client.Issues.ListComments(ctx, owner, repo, number,
		&gh.IssueListCommentsOptions{ListOptions: p.listOptions()})
	if err := p.auxiliary(ctx, "github.issue.comments", resp, err); err != nil {
		return nil, err
	}
	pl.issueComments = comments
	return pl, nil
}

func (p *GitHubProvider) fetchCommit(ctx context.Context, owner, repo, sha string) (*payload, error) {
	opts := p.listOptions()
	commit, resp, err := p.client.Repositories.GetCommit(ctx, owner, repo, sha, &opts)
	if err != nil {
		return nil, classify("github.commit", resp, err)
	}
	if resp != nil && resp.NextPage != 0 {
		zerolog.Ctx(ctx).Debug().Str("sha", sha).Int("last_page", resp.LastPage).Msg("Commit has more files than one page")
	}
	return &payload{commit: commit, files: commit.Files}, nil
}

// fetchUnknown asks GitHub about a kind we have no mapping for. The usual
// answer is 404; a successful answer still cannot be normalized.
func (p *GitHubProvider) fetchUnknown(ctx context.Context, loc locator.Locator) error {
	const op = "github.resource"
	path := fmt.Sprintf("repos/%s/%s/%s", loc.Namespace, url.PathEscape(loc.RawKind), url.PathEscape(loc.ID))
	req, err := p.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return fault.InputFormat("Invalid GitHub resource path %q: %v", path, err)
	}
	var raw json.RawMessage
	resp, err := p.client.Do(ctx, req, &raw)
	if err != nil {
		return classify(op, resp, err)
	}
	return fault.Upstream(op, "unsupported resource kind %q", loc.RawKind)
}

func (p *GitHubProvider) listOptions() gh.ListOptions {
	return gh.ListOptions{PerPage: p.perPage}
}

func (p *GitHubProvider) auxiliary(ctx context.Context, op string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	return providers.Auxiliary(ctx, op, classify(op, resp, err))
}

// classify converts a go-github error into the fault taxonomy.
func classify(op string, resp *gh.Response, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &fault.Error{Kind: fault.KindUpstream, Op: op, Status: statusOf(resp), Message: rateErr.Message, Err: err}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &fault.Error{Kind: fault.KindUpstream, Op: op, Status: statusOf(resp), Message: abuseErr.Message, Err: err}
	}
	status := statusOf(resp)
	switch {
	case status == 0:
		return fault.FromTransport(op, err)
	case status >= 200 && status < 300:
		return fault.DecodeFailure(op, err)
	}
	var msg string
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) {
		msg = errResp.Message
	}
	fe := fault.FromStatus(op, status, []byte(msg))
	fe.Err = err
	return fe
}

func statusOf(resp *gh.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
