// Package diff reads unified diffs as the platforms return them, either a
// whole multi-file diff or the hunks of a single file.
package diff

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Hunk is one @@ section with its line counts.
type Hunk struct {
	OldStartLine int
	OldLineCount int
	NewStartLine int
	NewLineCount int
	Additions    int
	Deletions    int
}

// Example: @@ -1,3 +1,4 @@ func main() {
var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Hunks parses every hunk in diffText. Lines outside a hunk (file headers,
// "--- a/x" and "+++ b/x") are not counted.
func Hunks(diffText string) []Hunk {
	var hunks []Hunk
	var cur *Hunk

	sc := bufio.NewScanner(strings.NewReader(diffText))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "@@"):
			hunks = append(hunks, parseHeader(line))
			cur = &hunks[len(hunks)-1]
		case strings.HasPrefix(line, "diff --git "):
			cur = nil
		case cur == nil:
		case strings.HasPrefix(line, "+"):
			cur.Additions++
		case strings.HasPrefix(line, "-"):
			cur.Deletions++
		}
	}
	return hunks
}

// Stat sums additions and deletions over every hunk.
func Stat(diffText string) (additions, deletions int) {
	for _, h := range Hunks(diffText) {
		additions += h.Additions
		deletions += h.Deletions
	}
	return additions, deletions
}

// parseHeader reads the line ranges; a missing count means one line.
func parseHeader(line string) Hunk {
	m := hunkHeader.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}
	}
	return Hunk{
		OldStartLine: atoi(m[1], 0),
		OldLineCount: atoi(m[2], 1),
		NewStartLine: atoi(m[3], 0),
		NewLineCount: atoi(m[4], 1),
	}
}

func atoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
