package jira

import (
	"time"

	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/normalize"
	"github.com/reviewbridge/pkg/models"
)

// jiraTime is the REST API timestamp layout.
const jiraTime = "2006-01-02T15:04:05.000-0700"

func (p *Provider) normalize(loc locator.Locator, is *issue) *models.Record {
	key := normalize.Text(is.Key, issueKey(loc))
	rec := models.NewRecord(string(locator.Jira), loc.Kind.String(), loc.Kind.Label(), key, loc.Namespace)

	f := is.Fields
	rec.Title = normalize.OrUnknown(f.Summary)
	rec.State = normalize.OrUnknown(f.Status.Name)
	rec.Description = normalize.Description(f.Description)
	rec.WebURL = p.baseURL + "/browse/" + key
	rec.CreatedAt = timestamp(f.Created)
	rec.UpdatedAt = timestamp(f.Updated)

	author := f.Reporter
	if author == nil {
		author = f.Creator
	}
	if author != nil {
		rec.Author = person(author)
	}
	if f.Assignee != nil {
		rec.Assignees = normalize.Strings([]string{displayName(f.Assignee)})
	}
	rec.Labels = normalize.Strings(f.Labels)

	comments := make([]models.Comment, 0, len(f.Comment.Comments))
	for _, c := range f.Comment.Comments {
		comments = append(comments, models.Comment{
			Author:    normalize.OrUnknown(displayName(&c.Author)),
			Body:      c.Body,
			CreatedAt: timestamp(c.Created),
		})
	}
	normalize.Files(rec, nil, 0)
	normalize.Totals(rec, nil)
	normalize.Comments(rec, comments, normalize.Omitted(f.Comment.Total, len(comments)))
	return rec
}

func person(u *user) models.Person {
	return models.Person{Name: normalize.OrUnknown(displayName(u)), Email: normalize.Email(u.EmailAddress)}
}

func displayName(u *user) string {
	return normalize.Text(u.DisplayName, u.Name)
}

func timestamp(s string) string {
	if s == "" {
		return models.Unknown
	}
	t, err := time.Parse(jiraTime, s)
	if err != nil {
		return s
	}
	return normalize.Time(&t)
}
