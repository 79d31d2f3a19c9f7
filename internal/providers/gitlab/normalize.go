package gitlab

import (
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/reviewbridge/internal/diff"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/normalize"
	"github.com/reviewbridge/pkg/models"
)

func normalizePayload(loc locator.Locator, pl *payload) *models.Record {
	rec := models.NewRecord(string(locator.GitLab), loc.Kind.String(), loc.Kind.Label(), loc.ID, loc.Namespace)
	switch loc.Kind {
	case locator.KindIssue:
		mapIssue(rec, pl)
	case locator.KindMergeRequest:
		mapMergeRequest(rec, pl)
	case locator.KindCommit:
		mapCommit(rec, pl)
	}
	normalize.Comments(rec, notes(pl.notes), normalize.Omitted(pl.notesReported, len(pl.notes)))
	return rec
}

func mapIssue(rec *models.Record, pl *payload) {
	issue := pl.issue
	rec.Title = normalize.OrUnknown(issue.Title)
	rec.State = normalize.OrUnknown(issue.State)
	rec.Description = normalize.Description(issue.Description)
	rec.WebURL = normalize.OrUnknown(issue.WebURL)
	rec.CreatedAt = normalize.Time(issue.CreatedAt)
	rec.UpdatedAt = normalize.Time(issue.UpdatedAt)
	if issue.Author != nil {
		rec.Author = person(issue.Author.Name, issue.Author.Username)
	}
	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.Username)
	}
	rec.Assignees = normalize.Strings(assignees)
	rec.Labels = normalize.Strings(issue.Labels)

	normalize.Files(rec, nil, 0)
	normalize.Totals(rec, nil)
}

func mapMergeRequest(rec *models.Record, pl *payload) {
	mr := pl.mr
	rec.Title = normalize.OrUnknown(mr.Title)
	rec.State = normalize.OrUnknown(mr.State)
	rec.Description = normalize.Description(mr.Description)
	rec.WebURL = normalize.OrUnknown(mr.WebURL)
	rec.CreatedAt = normalize.Time(mr.CreatedAt)
	rec.UpdatedAt = normalize.Time(mr.UpdatedAt)
	if mr.Author != nil {
		rec.Author = person(mr.Author.Name, mr.Author.Username)
	}
	assignees := make([]string, 0, len(mr.Assignees))
	for _, a := range mr.Assignees {
		assignees = append(assignees, a.Username)
	}
	rec.Assignees = normalize.Strings(assignees)
	rec.Labels = normalize.Strings(mr.Labels)
	rec.SourceBranch = normalize.OrUnknown(mr.SourceBranch)
	rec.TargetBranch = normalize.OrUnknown(mr.TargetBranch)
	rec.Merged = mr.State == "merged" || mr.MergedAt != nil
	rec.MergedAt = normalize.Time(mr.MergedAt)

	files := make([]models.FileChange, 0, len(pl.mrDiffs))
	for _, d := range pl.mrDiffs {
		files = append(files, fileChange(d.OldPath, d.NewPath, d.Diff, d.NewFile, d.DeletedFile, d.RenamedFile))
	}
	normalize.Files(rec, files, normalize.Omitted(pl.filesReported, len(pl.mrDiffs)))
	normalize.Totals(rec, nil)
}

func mapCommit(rec *models.Record, pl *payload) {
	c := pl.commit
	rec.Title = normalize.OrUnknown(c.Title)
	rec.Description = normalize.Description(c.Message)
	rec.SHA = normalize.OrUnknown(c.ID)
	rec.WebURL = normalize.OrUnknown(c.WebURL)
	rec.Author = models.Person{Name: normalize.OrUnknown(c.AuthorName), Email: normalize.Email(c.AuthorEmail)}
	rec.CreatedAt = normalize.Time(c.AuthoredDate)
	rec.UpdatedAt = normalize.Time(c.CommittedDate)

	files := make([]models.FileChange, 0, len(pl.commitDiffs))
	for _, d := range pl.commitDiffs {
		files = append(files, fileChange(d.OldPath, d.NewPath, d.Diff, d.NewFile, d.DeletedFile, d.RenamedFile))
	}
	normalize.Files(rec, files, normalize.Omitted(pl.filesReported, len(pl.commitDiffs)))
	var agg *normalize.Aggregate
	if c.Stats != nil {
		agg = &normalize.Aggregate{Additions: c.Stats.Additions, Deletions: c.Stats.Deletions}
	}
	normalize.Totals(rec, agg)
}

// fileChange counts lines itself because GitLab diffs carry no per-file
// stats.
func fileChange(oldPath, newPath, patch string, added, deleted, renamed bool) models.FileChange {
	path := newPath
	if deleted || path == "" {
		path = oldPath
	}
	adds, dels := diff.Stat(patch)
	return models.FileChange{
		Path:      path,
		Additions: adds,
		Deletions: dels,
		Status:    normalize.FileStatus(added, deleted, renamed),
	}
}

// notes drops system notes (label changes, pushes) and keeps discussion.
func notes(in []*gitlab.Note) []models.Comment {
	out := make([]models.Comment, 0, len(in))
	for _, n := range in {
		if n.System {
			continue
		}
		c := models.Comment{
			Author:    normalize.OrUnknown(normalize.Text(n.Author.Name, n.Author.Username)),
			Body:      n.Body,
			CreatedAt: normalize.Time(n.CreatedAt),
		}
		if n.Position != nil {
			c.Path = n.Position.NewPath
			c.Line = n.Position.NewLine
		}
		out = append(out, c)
	}
	return out
}

func person(name, username string) models.Person {
	return models.Person{Name: normalize.OrUnknown(normalize.Text(name, username)), Email: models.NoEmail}
}
