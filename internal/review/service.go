package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/logging"
	"github.com/reviewbridge/internal/metrics"
	"github.com/reviewbridge/internal/prompts"
	"github.com/reviewbridge/internal/providers"
	"github.com/reviewbridge/pkg/models"
)

// Envelope is the result of one tool invocation. On success the record fields
// are flattened next to the prompt; on failure only Error and Instructions
// are set.
type Envelope struct {
	*models.Record
	ReviewPrompt string `json:"review_prompt,omitempty"`
	Error        string `json:"error,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Failed reports whether the envelope carries an error.
func (e *Envelope) Failed() bool {
	return e.Error != ""
}

// Service represents the review orchestration service
type Service struct {
	providers map[locator.Platform]providers.Provider
	builder   *prompts.PromptBuilder
}

// NewService creates a new review service
func NewService(builder *prompts.PromptBuilder, ps ...providers.Provider) *Service {
	if builder == nil {
		builder = prompts.NewPromptBuilder(prompts.DefaultOptions())
	}
	s := &Service{
		providers: make(map[locator.Platform]providers.Provider, len(ps)),
		builder:   builder,
	}
	for _, p := range ps {
		s.providers[p.Platform()] = p
	}
	return s
}

// Provider returns the provider registered for platform.
func (s *Service) Provider(platform locator.Platform) (providers.Provider, bool) {
	p, ok := s.providers[platform]
	return p, ok
}

// Run resolves input on platform and renders the prompt. It never returns an
// error: every failure, including a panic in a mapper, becomes an envelope.
func (s *Service) Run(ctx context.Context, platform locator.Platform, input string) (env *Envelope) {
	inv := logging.ForInvocation(string(platform), input)
	ctx = inv.WithContext(ctx)

	outcome := "ok"
	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("%v", r)
			outcome = fault.KindUpstream.String()
			inv.Logger.Error().Interface("panic", r).Msg("Recovered from panic while resolving resource")
			env = &Envelope{Error: fmt.Sprintf("Unexpected error: %v", r)}
		}
		metrics.ObserveInvocation(string(platform), outcome)
		inv.Done(outcome, runErr)
	}()

	p, ok := s.providers[platform]
	if !ok {
		outcome = fault.KindConfiguration.String()
		runErr = fmt.Errorf("unsupported platform: %s", platform)
		return &Envelope{Error: runErr.Error()}
	}

	rec, loc, err := s.resolve(ctx, p, input)
	if err != nil {
		outcome = fault.KindOf(err).String()
		runErr = err
		return failure(err, p, loc)
	}

	return &Envelope{
		Record:       rec,
		ReviewPrompt: s.builder.Build(rec),
	}
}

// resolve runs the pipeline up to the record. Credentials and input format
// are checked before any network call.
func (s *Service) resolve(ctx context.Context, p providers.Provider, input string) (*models.Record, locator.Locator, error) {
	if err := p.CheckCredentials(); err != nil {
		return nil, locator.Locator{}, err
	}

	loc, err := p.Parse(strings.TrimSpace(input))
	if err != nil {
		return nil, loc, err
	}
	zerolog.Ctx(ctx).Debug().Str("locator", loc.String()).Msg("Parsed identifier")

	rec, err := p.Resolve(ctx, loc)
	if err != nil {
		return nil, loc, err
	}
	return rec, loc, nil
}

// failure renders err for the caller.
func failure(err error, p providers.Provider, loc locator.Locator) *Envelope {
	fe, ok := fault.As(err)
	if !ok {
		return &Envelope{Error: fmt.Sprintf("Unexpected error: %v", err)}
	}

	switch fe.Kind {
	case fault.KindConfiguration:
		return &Envelope{Error: fe.Message, Instructions: fe.Instructions}
	case fault.KindInputFormat:
		return &Envelope{Error: fe.Message}
	case fault.KindNotFound:
		return &Envelope{Error: fmt.Sprintf("Resource not found. Please check the path format and ensure you have access to this %s.", loc.Noun())}
	case fault.KindAuthentication:
		return &Envelope{Error: fmt.Sprintf("Authentication failed. Please check your %s.", p.CredentialName())}
	case fault.KindDecode:
		return &Envelope{Error: "Unexpected data format: " + fe.Message}
	}

	switch {
	case fe.Timeout:
		return &Envelope{Error: "API Request Failed: request timed out"}
	case fe.Status > 0:
		return &Envelope{Error: fmt.Sprintf("API Request Failed: %d - %s", fe.Status, fe.Message)}
	default:
		return &Envelope{Error: "API Request Failed: " + fe.Message}
	}
}
