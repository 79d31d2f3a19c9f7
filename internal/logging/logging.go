package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Output always goes to w (stderr in
// production) because stdout carries the stdio transport.
func Init(level, format string, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

// Invocation tracks a single tool call from dispatch to result.
type Invocation struct {
	ID        string
	Tool      string
	Logger    zerolog.Logger
	startTime time.Time
}

// ForInvocation returns a child of the global logger tagged with a fresh
// invocation id.
func ForInvocation(tool, input string) *Invocation {
	id := uuid.NewString()
	return &Invocation{
		ID:   id,
		Tool: tool,
		Logger: log.With().
			Str("invocation", id).
			Str("tool", tool).
			Str("input", input).
			Logger(),
		startTime: time.Now(),
	}
}

// WithContext attaches the invocation logger so fetchers can reach it through
// zerolog.Ctx.
func (i *Invocation) WithContext(ctx context.Context) context.Context {
	return i.Logger.WithContext(ctx)
}

// Done logs the outcome with the elapsed time.
func (i *Invocation) Done(outcome string, err error) {
	if i == nil {
		return
	}
	elapsed := time.Since(i.startTime).Round(time.Millisecond)
	ev := i.Logger.Info()
	if err != nil {
		ev = i.Logger.Warn().Err(err)
	}
	ev.Str("outcome", outcome).Dur("elapsed", elapsed).Msg("invocation finished")
}
