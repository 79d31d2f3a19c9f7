package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/reviewbridge/internal/mcp"
)

// ServeCommand returns the CLI command for starting the MCP server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the review tools over MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Usage:   "Transport to serve on: stdio or http",
			},
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen address for the http transport",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}

	transport := rt.cfg.Server.Transport
	if override := c.String("transport"); override != "" {
		transport = override
	}
	listen := rt.cfg.Server.Listen
	if override := c.String("listen"); override != "" {
		listen = override
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(rt.service, c.App.Version)

	switch transport {
	case "stdio":
		log.Info().Msg("Serving MCP over stdio")
		return server.RunStdio(ctx)
	case "http":
		return mcp.NewHTTPServer(server, listen).Run(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}
