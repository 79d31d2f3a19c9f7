// Package fault holds the error taxonomy shared by every fetcher. Each
// platform call ends in one of a small set of kinds, and the review service
// renders the kind into a user-facing message.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindUpstream Kind = iota
	KindConfiguration
	KindInputFormat
	KindNotFound
	KindAuthentication
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputFormat:
		return "input_format"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindDecode:
		return "decode"
	default:
		return "upstream"
	}
}

// bodyExcerptLimit bounds the upstream body quoted in error messages.
const bodyExcerptLimit = 300

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op names the call that failed, e.g. "github.pull_request".
	Op      string
	Message string
	// Instructions tells the caller how to fix a configuration problem.
	Instructions string
	// Status is the upstream HTTP status, zero for transport failures.
	Status  int
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil && e.Message == "" {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration reports a missing or unusable credential.
func Configuration(message, instructions string) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Instructions: instructions}
}

// MissingEnv is the configuration error for an unset environment variable.
func MissingEnv(name, purpose string) *Error {
	return Configuration(
		fmt.Sprintf("%s environment variable not set. Please set it to your %s.", name, purpose),
		fmt.Sprintf("To set the token: export %s='your_token_here'", name),
	)
}

// InputFormat reports an identifier the parser could not resolve.
func InputFormat(format string, args ...any) *Error {
	return &Error{Kind: KindInputFormat, Message: fmt.Sprintf(format, args...)}
}

// Upstream reports an unexpected answer that is not tied to a status code.
func Upstream(op, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Op: op, Message: fmt.Sprintf(format, args...)}
}

// DecodeFailure wraps a body that could not be decoded.
func DecodeFailure(op string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Message: err.Error(), Err: err}
}

// FromStatus classifies a non-2xx HTTP answer.
func FromStatus(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Message: excerpt(body)}
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuthentication
	default:
		e.Kind = KindUpstream
	}
	return e
}

// FromTransport classifies an error returned before any status was read.
func FromTransport(op string, err error) *Error {
	e := &Error{Kind: KindUpstream, Op: op, Message: err.Error(), Err: err}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		e.Timeout = true
	}
	return e
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindUpstream for unclassified errors.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return KindUpstream
}

// Degradable reports whether an auxiliary call that failed with err may be
// replaced by an empty result. Authentication failures and 5xx answers stay
// fatal.
func Degradable(err error) bool {
	fe, ok := As(err)
	if !ok {
		return false
	}
	switch {
	case fe.Kind == KindNotFound:
		return true
	case fe.Timeout:
		return true
	case fe.Kind == KindAuthentication:
		return false
	case fe.Status >= 400 && fe.Status < 500:
		return true
	}
	return false
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > bodyExcerptLimit {
		s = string(r[:bodyExcerptLimit]) + "..."
	}
	return s
}
