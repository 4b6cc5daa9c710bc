package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/teiinfo/pkg/adapters/http"
	"github.com/aretw0/teiinfo/pkg/adapters/mcp"
)

// Transports supported by RunMCP.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// RunServe serves the HTTP API until ctx is cancelled.
func RunServe(ctx context.Context, app *App, w io.Writer, addr string) error {
	if addr == "" {
		addr = app.Config.HTTP.Addr
	}
	handler, err := httpadapter.NewHandler(app.Toolkit,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithName(app.Toolkit.Name),
		httpadapter.WithGatherer(app.Registry),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(w, "Serving %s on %s", app.Config.Corpus, addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		app.Logger.Info("Server stopped")
		return nil
	}
}

// RunMCP serves the toolkit to MCP clients.
func RunMCP(ctx context.Context, app *App, transport, addr string) error {
	srv := mcp.NewServer(app.Toolkit, mcp.WithLogger(app.Logger))
	switch transport {
	case "", TransportStdio:
		app.Logger.Info("Starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		err := srv.ServeSSE(ctx, addr, "http://localhost"+addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown transport %q", transport)
}
