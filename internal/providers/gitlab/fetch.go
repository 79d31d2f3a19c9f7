package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
)

// payload holds the decoded answers of one fetch
type payload struct {
	issue       *gitlab.Issue
	mr          *gitlab.MergeRequest
	commit      *gitlab.Commit
	mrDiffs     []*gitlab.MergeRequestDiff
	commitDiffs []*gitlab.Diff
	notes       []*gitlab.Note

	// Totals from the X-Total header, zero when absent.
	filesReported int
	notesReported int
}

func (p *GitLabProvider) fetch(ctx context.Context, loc locator.Locator) (*payload, error) {
	zerolog.Ctx(ctx).Debug().
		Str("project", loc.Namespace).
		Str("kind", loc.Kind.String()).
		Str("id", loc.ID).
		Msg("Fetching GitLab resource")

	switch loc.Kind {
	case locator.KindIssue:
		iid, _ := strconv.Atoi(loc.ID)
		return p.fetchIssue(ctx, loc.Namespace, iid)
	case locator.KindMergeRequest:
		iid, _ := strconv.Atoi(loc.ID)
		return p.fetchMergeRequest(ctx, loc.Namespace, iid)
	case locator.KindCommit:
		return p.fetchCommit(ctx, loc.Namespace, loc.ID)
	default:
		return nil, p.fetchUnknown(ctx, loc)
	}
}

func (p *GitLabProvider) fetchIssue(ctx context.Context, project string, iid int) (*payload, error) {
	issue, resp, err := p.getIssue(ctx, project, iid)
	if err != nil {
		return nil, classify("gitlab.issue", resp, err)
	}
	pl := &payload{issue: issue}

	notes, resp, err := p.client.Notes.ListIssueNotes(project, iid,
		&gitlab.ListIssueNotesOptions{ListOptions: p.listOptions()}, gitlab.WithContext(ctx))
	if err := p.auxiliary(ctx, "gitlab.issue.notes", resp, err); err != nil {
		return nil, err
	}
	pl.notes = notes
	pl.notesReported = totalItems(resp)
	return pl, nil
}

// getIssue guards Issue.UnmarshalJSON, which panics on a body without "id".
func (p *GitLabProvider) getIssue(ctx context.Context, project string, iid int) (issue *gitlab.Issue, resp *gitlab.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			issue = nil
			err = fault.DecodeFailure("gitlab.issue", fmt.Errorf("malformed issue: %v", r))
		}
	}()
	return p.client.Issues.GetIssue(project, iid, gitlab.WithContext(ctx))
}

func (p *GitLabProvider) fetchMergeRequest(ctx context.Context, project string, iid int) (*payload, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(project, iid, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classify("gitlab.merge_request", resp, err)
	}
	pl := &payload{mr: mr, filesReported: changesCount(mr.ChangesCount)}

	diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(project, iid,
		&gitlab.ListMergeRequestDiffsOptions{ListOptions: p.listOptions()}, gitlab.WithContext(ctx))
	if err := p.auxiliary(ctx, "gitlab.merge_request.diffs", resp, err); err != nil {
		return nil, err
	}
	pl.mrDiffs = diffs
	if n := totalItems(resp); n > 0 {
		pl.filesReported = n
	}

	notes, resp, err := p.client.Notes.ListMergeRequestNotes(project, iid,
		&gitlab.ListMergeRequestNotesOptions{ListOptions: p.listOptions()}, gitlab.WithContext(ctx))
	if err := p.auxiliary(ctx, "gitlab.merge_request.notes", resp, err); err != nil {
		return nil, err
	}
	pl.notes = notes
	pl.notesReported = totalItems(resp)
	return pl, nil
}

func (p *GitLabProvider) fetchCommit(ctx context.Context, project, sha string) (*payload, error) {
	commit, resp, err := p.client.Commits.GetCommit(project, sha,
		&gitlab.GetCommitOptions{Stats: gitlab.Ptr(true)}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classify("gitlab.commit", resp, err)
	}
	pl := &payload{commit: commit}

	diffs, resp, err := p.client.Commits.GetCommitDiff(project, sha,
		&gitlab.GetCommitDiffOptions{ListOptions: p.listOptions()}, gitlab.WithContext(ctx))
	if err := p.auxiliary(ctx, "gitlab.commit.diff", resp, err); err != nil {
		return nil, err
	}
	pl.commitDiffs = diffs
	pl.filesReported = totalItems(resp)
	return pl, nil
}

// fetchUnknown sends the unmapped kind to the API as typed. GitLab answers
// 404 for anything it does not know; a successful answer still has no
// mapping.
func (p *GitLabProvider) fetchUnknown(ctx context.Context, loc locator.Locator) error {
	const op = "gitlab.resource"
	path := fmt.Sprintf("projects/%s/%s/%s", url.PathEscape(loc.Namespace), url.PathEscape(loc.RawKind), url.PathEscape(loc.ID))
	req, err := p.client.NewRequest(http.MethodGet, path, nil, []gitlab.RequestOptionFunc{gitlab.WithContext(ctx)})
	if err != nil {
		return fault.InputFormat("Invalid GitLab resource path %q: %v", path, err)
	}
	var raw json.RawMessage
	resp, err := p.client.Do(req, &raw)
	if err != nil {
		return classify(op, resp, err)
	}
	return fault.Upstream(op, "unsupported resource kind %q", loc.RawKind)
}

func (p *GitLabProvider) listOptions() gitlab.ListOptions {
	return gitlab.ListOptions{PerPage: p.perPage, Page: 1}
}

func (p *GitLabProvider) auxiliary(ctx context.Context, op string, resp *gitlab.Response, err error) error {
	if err == nil {
		return nil
	}
	return providers.Auxiliary(ctx, op, classify(op, resp, err))
}

// classify converts a client-go error into the fault taxonomy
func classify(op string, resp *gitlab.Response, err error) error {
	if _, ok := fault.As(err); ok {
		return err
	}
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	switch {
	case status == 0:
		return fault.FromTransport(op, err)
	case status >= 200 && status < 300:
		return fault.DecodeFailure(op, err)
	}
	var msg string
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) {
		msg = errResp.Message
	}
	fe := fault.FromStatus(op, status, []byte(msg))
	fe.Err = err
	return fe
}

func totalItems(resp *gitlab.Response) int {
	if resp == nil {
		return 0
	}
	return resp.TotalItems
}

// changesCount parses the merge request changes_count, which GitLab caps
// as "1000+".
func changesCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil {
		return 0
	}
	return n
}
