package prompts

import (
	"fmt"
	"strings"

	"github.com/reviewbridge/pkg/models"
)

// Options bound the prompt-facing summary.
type Options struct {
	DescriptionLimit int
	DisplayFiles     int
	DisplayComments  int
}

// DefaultOptions mirrors the [general] defaults.
func DefaultOptions() Options {
	return Options{DescriptionLimit: 500, DisplayFiles: 10, DisplayComments: 5}
}

// PromptBuilder renders records into analysis prompts. Output depends only
// on the record and the options.
type PromptBuilder struct {
	opts Options
}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder(opts Options) *PromptBuilder {
	return &PromptBuilder{opts: opts}
}

// Build renders rec into a prompt
func (pb *PromptBuilder) Build(rec *models.Record) string {
	var b strings.Builder

	reviewable := isReviewable(rec.Kind)
	intro := AnalysisIntro
	if reviewable {
		intro = ReviewIntro
	}
	b.WriteString(fmt.Sprintf(intro, platformTitle(rec.Platform), rec.ResourceType))
	b.WriteString("\n\n")
	b.WriteString(header(rec))
	b.WriteString("\n")
	pb.addMetadata(&b, rec)

	b.WriteString("\n")
	b.WriteString(DescriptionHeader)
	b.WriteString("\n")
	b.WriteString(Truncate(rec.Description, pb.opts.DescriptionLimit))
	b.WriteString("\n\n")
	b.WriteString(URLPrefix + rec.WebURL + "\n")

	if reviewable {
		pb.addFiles(&b, rec)
	}
	pb.addComments(&b, rec)

	b.WriteString("\n")
	if reviewable {
		b.WriteString(ReviewFocus)
	} else {
		b.WriteString(fmt.Sprintf(AnalysisFocus, strings.ToLower(rec.ResourceType)))
	}
	return b.String()
}

func (pb *PromptBuilder) addMetadata(b *strings.Builder, rec *models.Record) {
	author := rec.Author.Name
	if rec.Author.Email != models.NoEmail {
		author = fmt.Sprintf("%s (%s)", author, rec.Author.Email)
	}
	bullet(b, "Author", author)

	state := rec.State
	if rec.Merged {
		state += " (merged)"
	}
	bullet(b, "State", state)
	bullet(b, "Project", rec.Project)
	if known(rec.SourceBranch) || known(rec.TargetBranch) {
		bullet(b, "Branch", branchLine(rec))
	}
	if known(rec.Topic) {
		bullet(b, "Topic", rec.Topic)
	}
	if known(rec.SHA) {
		bullet(b, "SHA", rec.SHA)
	}
	bullet(b, "Created", rec.CreatedAt)
	bullet(b, "Updated", rec.UpdatedAt)
	if rec.Merged && known(rec.MergedAt) {
		bullet(b, "Merged", rec.MergedAt)
	}
	bullet(b, "Assignees", joinOrNone(rec.Assignees))
	bullet(b, "Labels", joinOrNone(rec.Labels))
}

func (pb *PromptBuilder) addFiles(b *strings.Builder, rec *models.Record) {
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(FilesHeader, rec.TotalFiles))
	b.WriteString("\n")

	shown := rec.FilesChanged
	if pb.opts.DisplayFiles > 0 && len(shown) > pb.opts.DisplayFiles {
		shown = shown[:pb.opts.DisplayFiles]
	}
	if len(shown) == 0 {
		b.WriteString("  " + NoneListed + "\n")
	}
	for _, f := range shown {
		b.WriteString(fmt.Sprintf("  %s: +%d -%d (%s)\n", f.Path, f.Additions, f.Deletions, f.Status))
	}
	if more := rec.TotalFiles - len(shown); more > 0 {
		b.WriteString(fmt.Sprintf(MoreFiles, more))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SummaryHeader)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("- Total additions: %d\n", rec.TotalAdditions))
	b.WriteString(fmt.Sprintf("- Total deletions: %d\n", rec.TotalDeletions))
}

func (pb *PromptBuilder) addComments(b *strings.Builder, rec *models.Record) {
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(CommentsHeader, rec.TotalComments))
	b.WriteString("\n")

	shown := rec.Comments
	if len(shown) > pb.opts.DisplayComments {
		shown = shown[:max(pb.opts.DisplayComments, 0)]
	}
	for _, c := range shown {
		where := ""
		if c.Path != "" {
			where = " on " + c.Path
			if c.Line > 0 {
				where = fmt.Sprintf("%s:%d", where, c.Line)
			}
		}
		body := strings.Join(strings.Fields(c.Body), " ")
		b.WriteString(fmt.Sprintf("- %s%s: %s\n", c.Author, where, Truncate(body, commentExcerpt)))
	}
	if more := rec.TotalComments - len(shown); more > 0 && len(shown) > 0 {
		b.WriteString(fmt.Sprintf(MoreComments, more))
		b.WriteString("\n")
	}
}

// Truncate bounds s to limit runes, appending an ellipsis when cut. A
// non-positive limit disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + Ellipsis
}

func header(rec *models.Record) string {
	switch {
	case rec.Kind == "pull_request":
		return fmt.Sprintf("**PR #%s: %s**", rec.ID, rec.Title)
	case rec.Kind == "commit":
		sha := rec.ID
		if len(sha) > 12 {
			sha = sha[:12]
		}
		return fmt.Sprintf("**Commit %s: %s**", sha, rec.Title)
	case rec.Platform == "jira":
		return fmt.Sprintf("**%s: %s**", rec.ID, rec.Title)
	}
	return fmt.Sprintf("**%s #%s: %s**", rec.ResourceType, rec.ID, rec.Title)
}

func isReviewable(kind string) bool {
	switch kind {
	case "pull_request", "merge_request", "commit", "gerrit_change":
		return true
	}
	return false
}

func platformTitle(p string) string {
	switch p {
	case "github":
		return "GitHub"
	case "gitlab":
		return "GitLab"
	case "gerrit":
		return "Gerrit"
	case "jira":
		return "Jira"
	}
	return p
}

func branchLine(rec *models.Record) string {
	switch {
	case !known(rec.SourceBranch):
		return rec.TargetBranch
	case !known(rec.TargetBranch):
		return rec.SourceBranch
	}
	return rec.SourceBranch + " -> " + rec.TargetBranch
}

// known reports whether a kind specific field holds a real value.
func known(s string) bool {
	return s != "" && s != models.Unknown
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return NoneListed
	}
	return strings.Join(items, ", ")
}

func bullet(b *strings.Builder, name, value string) {
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
