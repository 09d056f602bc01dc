package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/pkg/adapters/mcp"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// RunMCP exposes the app as an MCP server over the given transport.
func RunMCP(ctx context.Context, app *App, transport string, port int) error {
	r := app.Replayer
	srv := mcp.NewServer(r.Coordinator, r.Engine, r.Sessions, parsetrail.Version, mcp.WithLogger(app.Logger))

	switch transport {
	case TransportStdio:
		app.Logger.Info("Starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		app.Logger.Info("Starting MCP server (SSE)", "port", port)
		return srv.ServeSSE(ctx, port)
	}
	return fmt.Errorf("unknown transport %q (supported: %s, %s)", transport, TransportStdio, TransportSSE)
}
