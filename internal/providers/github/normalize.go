package github

import (
	"strings"

	gh "github.com/google/go-github/v72/github"

	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/normalize"
	"github.com/reviewbridge/pkg/models"
)

func normalizePayload(loc locator.Locator, pl *payload) *models.Record {
	rec := models.NewRecord(string(locator.GitHub), loc.Kind.String(), loc.Kind.Label(), loc.ID, loc.Namespace)
	switch loc.Kind {
	case locator.KindPullRequest:
		mapPullRequest(rec, pl)
	case locator.KindIssue:
		mapIssue(rec, pl)
	case locator.KindCommit:
		mapCommit(rec, pl)
	}
	return rec
}

func mapPullRequest(rec *models.Record, pl *payload) {
	pr := pl.pr
	rec.Title = normalize.OrUnknown(pr.GetTitle())
	rec.State = normalize.OrUnknown(pr.GetState())
	rec.Description = normalize.Description(pr.GetBody())
	rec.WebURL = normalize.OrUnknown(pr.GetHTMLURL())
	rec.CreatedAt = timestamp(pr.CreatedAt)
	rec.UpdatedAt = timestamp(pr.UpdatedAt)
	rec.Author = person(pr.GetUser())
	rec.Assignees = logins(pr.Assignees)
	rec.Labels = labelNames(pr.Labels)
	rec.SourceBranch = normalize.OrUnknown(pr.GetHead().GetRef())
	rec.TargetBranch = normalize.OrUnknown(pr.GetBase().GetRef())
	rec.Merged = pr.GetMerged()
	rec.MergedAt = timestamp(pr.MergedAt)

	normalize.Files(rec, files(pl.files), normalize.Omitted(pr.GetChangedFiles(), len(pl.files)))
	var agg *normalize.Aggregate
	if pr.Additions != nil && pr.Deletions != nil {
		agg = &normalize.Aggregate{Additions: pr.GetAdditions(), Deletions: pr.GetDeletions()}
	}
	normalize.Totals(rec, agg)

	comments := append(reviewComments(pl.reviewComments), issueComments(pl.issueComments)...)
	fetched := len(pl.reviewComments) + len(pl.issueComments)
	normalize.Comments(rec, comments, normalize.Omitted(pr.GetComments()+pr.GetReviewComments(), fetched))
}

func mapIssue(rec *models.Record, pl *payload) {
	issue := pl.issue
	rec.Title = normalize.OrUnknown(issue.GetTitle())
	rec.State = normalize.OrUnknown(issue.GetState())
	rec.Description = normalize.Description(issue.GetBody())
	rec.WebURL = normalize.OrUnknown(issue.GetHTMLURL())
	rec.CreatedAt = timestamp(issue.CreatedAt)
	rec.UpdatedAt = timestamp(issue.UpdatedAt)
	rec.Author = person(issue.GetUser())
	rec.Assignees = logins(issue.Assignees)
	rec.Labels = labelNames(issue.Labels)

	normalize.Files(rec, nil, 0)
	normalize.Totals(rec, nil)
	normalize.Comments(rec, issueComments(pl.issueComments), normalize.Omitted(issue.GetComments(), len(pl.issueComments)))
}

func mapCommit(rec *models.Record, pl *payload) {
	c := pl.commit
	message := c.GetCommit().GetMessage()
	title, _, _ := strings.Cut(message, "\n")
	rec.Title = normalize.OrUnknown(title)
	rec.Description = normalize.Description(message)
	rec.SHA = normalize.OrUnknown(c.GetSHA())
	rec.WebURL = normalize.OrUnknown(c.GetHTMLURL())

	author := c.GetCommit().GetAuthor()
	rec.Author = models.Person{Name: normalize.OrUnknown(author.GetName()), Email: normalize.Email(author.GetEmail())}
	if c.GetAuthor().GetLogin() != "" {
		rec.Author.Name = c.GetAuthor().GetLogin()
	}
	authored := author.GetDate()
	committed := c.GetCommit().GetCommitter().GetDate()
	rec.CreatedAt = timestamp(&authored)
	rec.UpdatedAt = timestamp(&committed)

	normalize.Files(rec, files(pl.files), 0)
	var agg *normalize.Aggregate
	if c.Stats != nil {
		agg = &normalize.Aggregate{Additions: c.Stats.GetAdditions(), Deletions: c.Stats.GetDeletions()}
	}
	normalize.Totals(rec, agg)
	normalize.Comments(rec, nil, 0)
}

func files(in []*gh.CommitFile) []models.FileChange {
	out := make([]models.FileChange, 0, len(in))
	for _, f := range in {
		out = append(out, models.FileChange{
			Path:      f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Status:    normalize.Text(f.GetStatus(), "modified"),
		})
	}
	return out
}

func reviewComments(in []*gh.PullRequestComment) []models.Comment {
	out := make([]models.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, models.Comment{
			Author:    normalize.OrUnknown(c.GetUser().GetLogin()),
			Body:      c.GetBody(),
			CreatedAt: timestamp(c.CreatedAt),
			Path:      c.GetPath(),
			Line:      c.GetLine(),
		})
	}
	return out
}

func issueComments(in []*gh.IssueComment) []models.Comment {
	out := make([]models.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, models.Comment{
			Author:    normalize.OrUnknown(c.GetUser().GetLogin()),
			Body:      c.GetBody(),
			CreatedAt: timestamp(c.CreatedAt),
		})
	}
	return out
}

func person(u *gh.User) models.Person {
	return models.Person{Name: normalize.OrUnknown(u.GetLogin()), Email: normalize.Email(u.GetEmail())}
}

func logins(users []*gh.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.GetLogin())
	}
	return normalize.Strings(names)
}

func labelNames(labels []*gh.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return normalize.Strings(names)
}

func timestamp(ts *gh.Timestamp) string {
	if ts == nil {
		return models.Unknown
	}
	t := ts.Time
	return normalize.Time(&t)
}
