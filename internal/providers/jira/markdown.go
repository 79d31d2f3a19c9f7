package jira

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Markdown renders raw API objects as fenced JSON blocks, one per object.
func Markdown(items ...json.RawMessage) string {
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		var buf bytes.Buffer
		if err := json.Indent(&buf, item, "", "  "); err != nil {
			buf.Reset()
			buf.Write(item)
		}
		blocks = append(blocks, "```json\n"+buf.String()+"\n```")
	}
	return strings.Join(blocks, "\n")
}
