package providers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/pkg/models"
)

// Provider represents one code hosting or issue tracking platform
type Provider interface {
	Platform() locator.Platform
	// CheckCredentials reports missing credentials without touching the
	// network.
	CheckCredentials() error
	// CredentialName is the variable quoted in authentication failures.
	CredentialName() string
	Parse(input string) (locator.Locator, error)
	// Resolve fetches the resource and normalizes it into a record.
	Resolve(ctx context.Context, loc locator.Locator) (*models.Record, error)
}

// Auxiliary filters the error of a secondary call (files, comments). A
// degradable failure is logged and dropped so the caller continues with an
// empty result; anything else is returned unchanged.
func Auxiliary(ctx context.Context, call string, err error) error {
	if err == nil || !fault.Degradable(err) {
		return err
	}
	zerolog.Ctx(ctx).Warn().Err(err).Str("call", call).Msg("Auxiliary request failed, continuing without it")
	return nil
}
