// Package decode turns raw upstream bodies into typed values.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reviewbridge/internal/fault"
)

// gerritPrefix is prepended by Gerrit to every JSON answer to defeat XSSI.
var gerritPrefix = []byte(")]}'")

// StripPrefix removes the Gerrit anti-XSSI prefix and the line break after
// it. Bodies without the prefix are returned unchanged.
func StripPrefix(body []byte) []byte {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if !bytes.HasPrefix(trimmed, gerritPrefix) {
		return body
	}
	rest := trimmed[len(gerritPrefix):]
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	rest = bytes.TrimPrefix(rest, []byte("\n"))
	return rest
}

// JSON strips any prefix and decodes body into v. Malformed or empty bodies
// produce a fault.KindDecode error.
func JSON(op string, body []byte, v any) error {
	body = StripPrefix(body)
	if len(bytes.TrimSpace(body)) == 0 {
		return fault.DecodeFailure(op, fmt.Errorf("empty response body"))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fault.DecodeFailure(op, fmt.Errorf("invalid JSON: %w", err))
	}
	return nil
}
