package gerrit

import (
	"sort"
	"strings"
	"time"

	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/normalize"
	"github.com/reviewbridge/pkg/models"
)

// gerritTime is the timestamp layout of the REST API, always UTC.
const gerritTime = "2006-01-02 15:04:05"

// Pseudo files Gerrit lists next to real ones.
var pseudoFiles = map[string]bool{
	"/COMMIT_MSG":     true,
	"/MERGE_LIST":     true,
	"/PATCHSET_LEVEL": true,
}

func (p *Provider) normalize(loc locator.Locator, pl *payload) *models.Record {
	ch := pl.change
	project := normalize.Text(ch.Project, loc.Namespace)
	rec := models.NewRecord(string(locator.Gerrit), loc.Kind.String(), loc.Kind.Label(), loc.ID, project)

	message := ""
	if rev, ok := ch.Revisions[ch.CurrentRevision]; ok {
		message = rev.Commit.Message
	}
	rec.Title = normalize.OrUnknown(ch.Subject)
	rec.State = normalize.OrUnknown(ch.Status)
	rec.Description = normalize.Description(message)
	rec.CommitMessage = normalize.OrUnknown(strings.TrimSpace(message))
	rec.WebURL = p.baseURL + "/c/" + project + "/+/" + loc.ID
	rec.CreatedAt = timestamp(ch.Created)
	rec.UpdatedAt = timestamp(ch.Updated)
	rec.Author = models.Person{
		Name:  normalize.OrUnknown(normalize.Text(ch.Owner.Name, ch.Owner.Username)),
		Email: normalize.Email(ch.Owner.Email),
	}
	rec.Labels = normalize.Strings(ch.Hashtags)
	// Changes are pushed to refs/for/<branch>, so there is no source branch.
	rec.SourceBranch = models.Unknown
	rec.TargetBranch = normalize.OrUnknown(ch.Branch)
	rec.Topic = normalize.OrUnknown(ch.Topic)
	rec.Merged = ch.Status == "MERGED"
	rec.MergedAt = models.Unknown
	if rec.Merged {
		rec.MergedAt = timestamp(ch.Submitted)
	}
	rec.SHA = normalize.OrUnknown(ch.CurrentRevision)

	normalize.Files(rec, files(pl.files), 0)
	var agg *normalize.Aggregate
	if ch.Insertions != nil && ch.Deletions != nil {
		agg = &normalize.Aggregate{Additions: *ch.Insertions, Deletions: *ch.Deletions}
	}
	normalize.Totals(rec, agg)
	normalize.Comments(rec, comments(pl.comments), 0)
	return rec
}

func files(in map[string]fileInfo) []models.FileChange {
	paths := make([]string, 0, len(in))
	for path := range in {
		if !pseudoFiles[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	out := make([]models.FileChange, 0, len(paths))
	for _, path := range paths {
		f := in[path]
		out = append(out, models.FileChange{
			Path:      path,
			Additions: f.LinesInserted,
			Deletions: f.LinesDeleted,
			Status:    fileStatus(f.Status),
		})
	}
	return out
}

func fileStatus(s string) string {
	switch s {
	case "A":
		return "added"
	case "D":
		return "removed"
	case "R":
		return "renamed"
	case "C":
		return "copied"
	}
	return "modified"
}

func comments(in map[string][]commentInfo) []models.Comment {
	paths := make([]string, 0, len(in))
	for path := range in {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]models.Comment, 0)
	for _, path := range paths {
		anchor := path
		if pseudoFiles[path] {
			anchor = ""
		}
		for _, c := range in[path] {
			out = append(out, models.Comment{
				Author:    normalize.OrUnknown(normalize.Text(c.Author.Name, c.Author.Username)),
				Body:      c.Message,
				CreatedAt: timestamp(c.Updated),
				Path:      anchor,
				Line:      c.Line,
			})
		}
	}
	return out
}

func timestamp(s string) string {
	if s == "" {
		return models.Unknown
	}
	t, err := time.Parse(gerritTime, s)
	if err != nil {
		return s
	}
	return normalize.Time(&t)
}
