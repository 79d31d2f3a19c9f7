// Package locator resolves loosely typed identifiers (web URLs or bare path
// fragments) into a platform-independent Locator.
package locator

import (
	"fmt"
	"strings"
)

// Platform names a supported upstream.
type Platform string

const (
	GitHub Platform = "github"
	GitLab Platform = "gitlab"
	Gerrit Platform = "gerrit"
	Jira   Platform = "jira"
)

// Title is the display name used in prompts and messages.
func (p Platform) Title() string {
	switch p {
	case GitHub:
		return "GitHub"
	case GitLab:
		return "GitLab"
	case Gerrit:
		return "Gerrit"
	case Jira:
		return "Jira"
	}
	return string(p)
}

// Kind is the resource type a locator points at.
type Kind int

const (
	KindUnknown Kind = iota
	KindIssue
	KindMergeRequest
	KindCommit
	KindPullRequest
	KindGerritChange
)

func (k Kind) String() string {
	switch k {
	case KindIssue:
		return "issue"
	case KindMergeRequest:
		return "merge_request"
	case KindCommit:
		return "commit"
	case KindPullRequest:
		return "pull_request"
	case KindGerritChange:
		return "gerrit_change"
	}
	return "unknown"
}

// Label is the human readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindIssue:
		return "Issue"
	case KindMergeRequest:
		return "Merge Request"
	case KindCommit:
		return "Commit"
	case KindPullRequest:
		return "Pull Request"
	case KindGerritChange:
		return "Change"
	}
	return "Resource"
}

// Locator addresses one resource on one platform.
type Locator struct {
	Platform  Platform
	Namespace string
	Kind      Kind
	// RawKind is the kind token as it appeared in the input.
	RawKind string
	ID      string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%s/%s/%s", l.Platform, l.Namespace, l.RawKind, l.ID)
}

// Noun is the lower-case noun used in user-facing messages ("issue",
// "merge request", ...). Unknown kinds fall back to the raw token.
func (l Locator) Noun() string {
	if l.Kind == KindUnknown {
		if l.RawKind != "" {
			return strings.ReplaceAll(l.RawKind, "_", " ")
		}
		return "resource"
	}
	return strings.ToLower(l.Kind.Label())
}
