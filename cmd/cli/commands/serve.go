package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/pkg/api"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var (
		addr    string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduler HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.API.Addr
			}

			h := api.NewHandler(app.Database, app.Cfg, app.Metrics, app.Logger)
			if publish {
				if app.NewPublisher == nil {
					return fmt.Errorf("publishing is not configured")
				}
				publisher, err := app.NewPublisher(app.Ctx)
				if err != nil {
					return fmt.Errorf("failed to connect to sheets: %w", err)
				}
				h.Publisher = publisher
			}

			opts := api.RouterOptions{AllowedOrigins: app.Cfg.API.AllowedOrigins}
			if app.Registry != nil {
				opts.Gatherer = app.Registry
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(h, opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("HTTP server listening", zap.String("addr", addr), zap.Bool("publish", publish))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to api.addr from config)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Connect to Google Sheets so /api/schedule/publish writes the rota sheet")
	return cmd
}
