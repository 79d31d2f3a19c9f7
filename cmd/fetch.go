package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/reviewbridge/internal/locator"
)

var platforms = []locator.Platform{locator.GitHub, locator.GitLab, locator.Gerrit, locator.Jira}

// FetchCommand returns the fetch command
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch one resource and print its envelope as JSON",
		ArgsUsage: "<github|gitlab|gerrit|jira> IDENTIFIER",
		Action:    runFetch,
	}
}

func runFetch(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("missing required arguments: platform and identifier")
	}

	platform, err := parsePlatform(c.Args().Get(0))
	if err != nil {
		return err
	}
	input := c.Args().Get(1)

	rt, err := bootstrap(c)
	if err != nil {
		return err
	}

	// Each upstream call carries its own timeout; this bounds the whole run.
	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.General.Timeout*8)
	defer cancel()

	env := rt.service.Run(ctx, platform, input)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if env.Failed() {
		return errors.New(env.Error)
	}
	return nil
}

func parsePlatform(s string) (locator.Platform, error) {
	for _, p := range platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q, expected one of github, gitlab, gerrit, jira", s)
}
