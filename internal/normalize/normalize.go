// Package normalize holds the rules every platform mapper applies when it
// turns a decoded payload into a models.Record.
package normalize

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewbridge/pkg/models"
)

// Text trims s and substitutes fallback when nothing is left.
func Text(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

// OrUnknown is Text with the Unknown marker.
func OrUnknown(s string) string { return Text(s, models.Unknown) }

// Description keeps the body as written but substitutes the marker for
// blank descriptions.
func Description(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NoDescription
	}
	return s
}

// Email substitutes the N/A marker for hidden addresses.
func Email(s string) string { return Text(s, models.NoEmail) }

// Time renders t in RFC 3339 UTC, or the Unknown marker.
func Time(t *time.Time) string {
	if t == nil || t.IsZero() {
		return models.Unknown
	}
	return t.UTC().Format(time.RFC3339)
}

// Strings drops blank entries and never returns nil.
func Strings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Aggregate is a platform supplied line count for the whole change.
type Aggregate struct {
	Additions int
	Deletions int
}

// Files stores the fetched file list on rec. omitted is the number of
// files the platform reports beyond the fetched page.
func Files(rec *models.Record, files []models.FileChange, omitted int) {
	if files == nil {
		files = []models.FileChange{}
	}
	if omitted < 0 {
		omitted = 0
	}
	rec.FilesChanged = files
	rec.OmittedFiles = omitted
	rec.TotalFiles = len(files) + omitted
}

// Comments stores the fetched comments on rec, see Files.
func Comments(rec *models.Record, comments []models.Comment, omitted int) {
	if comments == nil {
		comments = []models.Comment{}
	}
	if omitted < 0 {
		omitted = 0
	}
	rec.Comments = comments
	rec.OmittedComments = omitted
	rec.TotalComments = len(comments) + omitted
}

// Omitted returns how many items the platform reported beyond fetched.
func Omitted(reported, fetched int) int {
	if reported > fetched {
		return reported - fetched
	}
	return 0
}

// Totals sets the change totals on rec. A platform aggregate wins over the
// per-file sums; a disagreement on a complete file list is only logged.
// Call after Files.
func Totals(rec *models.Record, agg *Aggregate) {
	var adds, dels int
	for _, f := range rec.FilesChanged {
		adds += f.Additions
		dels += f.Deletions
	}
	if agg == nil {
		rec.TotalAdditions, rec.TotalDeletions = adds, dels
		rec.StatsSource = models.StatsComputed
		return
	}
	if rec.OmittedFiles == 0 && len(rec.FilesChanged) > 0 && (agg.Additions != adds || agg.Deletions != dels) {
		log.Debug().
			Str("platform", rec.Platform).
			Str("id", rec.ID).
			Int("reported_additions", agg.Additions).
			Int("reported_deletions", agg.Deletions).
			Int("computed_additions", adds).
			Int("computed_deletions", dels).
			Msg("Platform totals disagree with per-file sums")
	}
	rec.TotalAdditions, rec.TotalDeletions = agg.Additions, agg.Deletions
	rec.StatsSource = models.StatsPlatform
}

// FileStatus maps the status flags most platforms report.
func FileStatus(added, deleted, renamed bool) string {
	switch {
	case added:
		return "added"
	case deleted:
		return "removed"
	case renamed:
		return "renamed"
	}
	return "modified"
}
