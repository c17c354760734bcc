package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the background sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Handler == nil {
				return errors.New("serve: no HTTP handler configured")
			}
			handler, err := app.Handler()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			return serve(ctx, app, ln, handler)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from http.addr)")
	return cmd
}

// serve runs the server on ln until ctx is done, then drains requests and
// waits for an in-flight sweep.
func serve(ctx context.Context, app *App, ln net.Listener, handler http.Handler) error {
	logger := app.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if app.Sweeper != nil {
		app.Sweeper.Start(ctx)
		logger.Info("sweep scheduled", "next", app.Sweeper.Next())
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutting down http server: %w", err))
	}
	if app.Sweeper != nil {
		select {
		case <-app.Sweeper.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("sweep still running at shutdown")
		}
	}
	logger.Info("http server stopped")

	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}
