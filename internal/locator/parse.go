package locator

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/reviewbridge/internal/fault"
)

var (
	numericID = regexp.MustCompile(`^[0-9]+$`)
	commitID  = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$|^[0-9a-fA-F]{64}$`)
	issueKey  = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)-([0-9]+)$`)
)

// Syntax describes how one platform spells resource identifiers.
type Syntax struct {
	Platform Platform
	// Host must appear in URL-form input.
	Host string
	// Keywords maps kind tokens to kinds. Tokens absent from the table
	// resolve to KindUnknown.
	Keywords map[string]Kind
	// Separator is a literal path segment that ends the namespace in URLs
	// ("-" on GitLab, "+" on Gerrit).
	Separator string
	// SeparatorIsKind marks separators that are themselves the kind token.
	SeparatorIsKind bool
	// NamespaceDepth fixes the namespace length in URLs without a separator.
	NamespaceDepth int
	// SkipPrefix is a leading URL segment that is not part of the namespace.
	SkipPrefix string
	// MinSegments is the minimum number of segments in path form.
	MinSegments int
	// Example is quoted in format errors.
	Example string
}

// Parse resolves input, a web URL or a path fragment, into a Locator.
func Parse(s Syntax, input string) (Locator, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Locator{}, fault.InputFormat("Empty %s identifier. Expected format: %s", s.Platform.Title(), s.Example)
	}
	if s.isURL(raw) {
		segs, err := s.urlSegments(raw)
		if err != nil {
			return Locator{}, err
		}
		return s.fromURL(segs)
	}
	return s.fromPath(splitPath(raw))
}

// ParseKey resolves a Jira style issue key ("PROJ-123") or a browse URL
// that contains one.
func ParseKey(s Syntax, input string) (Locator, error) {
	raw := strings.TrimSpace(input)
	key := raw
	if s.isURL(raw) {
		segs, err := s.urlSegments(raw)
		if err != nil {
			return Locator{}, err
		}
		key = ""
		for i, seg := range segs {
			if seg == "browse" && i+1 < len(segs) {
				key = segs[i+1]
				break
			}
		}
		if key == "" {
			return Locator{}, fault.InputFormat("Invalid %s URL. Expected format: %s", s.Platform.Title(), s.Example)
		}
	}
	m := issueKey.FindStringSubmatch(strings.ToUpper(key))
	if m == nil {
		return Locator{}, fault.InputFormat("Invalid issue key %q. Expected format: %s", raw, s.Example)
	}
	return Locator{Platform: s.Platform, Namespace: m[1], Kind: KindIssue, RawKind: "browse", ID: m[2]}, nil
}

func (s Syntax) isURL(raw string) bool {
	if strings.Contains(raw, "://") {
		return true
	}
	return s.Host != "" && (strings.HasPrefix(raw, s.Host) || strings.HasPrefix(raw, "www."+s.Host))
}

func (s Syntax) urlSegments(raw string) ([]string, error) {
	if s.Host != "" && !strings.Contains(raw, s.Host) {
		return nil, fault.InputFormat("Invalid %s URL: %s is not on %s", s.Platform.Title(), raw, s.Host)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fault.InputFormat("Invalid %s URL: %v", s.Platform.Title(), err)
	}
	return splitPath(u.Path), nil
}

func (s Syntax) fromURL(segs []string) (Locator, error) {
	if s.SkipPrefix != "" && len(segs) > 0 && segs[0] == s.SkipPrefix {
		segs = segs[1:]
	}
	if s.Separator != "" {
		idx := indexOf(segs, s.Separator)
		if idx < 0 {
			return s.fromPath(segs)
		}
		if s.SeparatorIsKind {
			if idx+1 >= len(segs) {
				return Locator{}, s.formatError()
			}
			return s.build(segs[:idx], s.Separator, segs[idx+1])
		}
		if idx+2 >= len(segs) {
			return Locator{}, s.formatError()
		}
		return s.build(segs[:idx], segs[idx+1], segs[idx+2])
	}
	if s.NamespaceDepth > 0 {
		if len(segs) < s.NamespaceDepth+2 {
			return Locator{}, s.formatError()
		}
		return s.build(segs[:s.NamespaceDepth], segs[s.NamespaceDepth], segs[s.NamespaceDepth+1])
	}
	return s.fromPath(segs)
}

func (s Syntax) fromPath(segs []string) (Locator, error) {
	if len(segs) < s.MinSegments || len(segs) < 3 {
		return Locator{}, s.formatError()
	}
	n := len(segs)
	ns := segs[:n-2]
	if s.Separator != "" && !s.SeparatorIsKind && ns[len(ns)-1] == s.Separator {
		ns = ns[:len(ns)-1]
	}
	if s.SkipPrefix != "" && len(ns) > 1 && ns[0] == s.SkipPrefix {
		ns = ns[1:]
	}
	return s.build(ns, segs[n-2], segs[n-1])
}

func (s Syntax) build(ns []string, token, id string) (Locator, error) {
	if len(ns) == 0 {
		return Locator{}, s.formatError()
	}
	kind, ok := s.Keywords[strings.ToLower(token)]
	if !ok {
		kind = KindUnknown
	}
	if !validID(kind, id) {
		return Locator{}, fault.InputFormat("Invalid %s id %q. Expected format: %s", strings.ToLower(kind.Label()), id, s.Example)
	}
	return Locator{
		Platform:  s.Platform,
		Namespace: strings.Join(ns, "/"),
		Kind:      kind,
		RawKind:   token,
		ID:        id,
	}, nil
}

func (s Syntax) formatError() error {
	return fault.InputFormat("Invalid path format. Expected format: %s", s.Example)
}

func validID(kind Kind, id string) bool {
	switch kind {
	case KindCommit:
		return commitID.MatchString(id)
	case KindUnknown:
		return id != ""
	default:
		return numericID.MatchString(id)
	}
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func indexOf(segs []string, want string) int {
	for i, s := range segs {
		if s == want {
			return i
		}
	}
	return -1
}
