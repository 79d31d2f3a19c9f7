package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/reviewbridge/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer serves the MCP endpoint over streamable HTTP next to health and
// metrics endpoints.
type HTTPServer struct {
	echo *echo.Echo
	addr string
}

// NewHTTPServer creates an HTTP host for s listening on addr.
func NewHTTPServer(s *Server, addr string) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")
			return nil
		},
	}))

	server := &HTTPServer{
		echo: e,
		addr: addr,
	}
	server.setupRoutes(s)
	return server
}

func (h *HTTPServer) setupRoutes(s *Server) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return s.MCPServer
	}, nil)
	h.echo.Any("/mcp", echo.WrapHandler(mcpHandler))

	h.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	h.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// Handler exposes the routes for tests and embedding.
func (h *HTTPServer) Handler() http.Handler {
	return h.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (h *HTTPServer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", h.addr).Msg("Serving MCP over HTTP")
		if err := h.echo.Start(h.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return h.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
