package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/corvid-http/corvid"
	"github.com/corvid-http/corvid/internal/cli/ui"
	"github.com/corvid-http/corvid/internal/cliconfig"
	"github.com/corvid-http/corvid/internal/web/middleware"
	"github.com/corvid-http/corvid/pkg/plugin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewServeCommand creates the "serve" command: it loads configuration
// (file + env + --section.key=value flag overlay), builds a corvid.App,
// registers the reference health-check endpoint, and blocks serving HTTP
// until interrupted.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the corvid application server",
		Long:  "Load corvid.yaml (overlaid by CORVID_* environment variables and --section.key=value flags) and start the HTTP server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := bindFlagOverlay(cmd, v); err != nil {
				return fmt.Errorf("binding flag overlay: %w", err)
			}

			cfg, err := cliconfig.Load(v)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, false))
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.Sync()

			app := corvid.New(cfg, logger)

			// Chi-level middleware: always-on, runs before routing even
			// matches so a panic or a missing request ID is caught for
			// 404s and 405s too.
			app.UseHTTP(middleware.Recovery())
			app.UseHTTP(middleware.RequestID())

			// Endpoint-level plugins: bridged from the same ordinary
			// net/http middleware via plugin.FromHTTP, demonstrating that
			// no middleware needs rewriting to run in the typed chain.
			app.Use(plugin.FromHTTP(middleware.CORS()))
			app.Use(plugin.FromHTTP(middleware.Compression()))
			app.Use(plugin.FromHTTP(middleware.Logging()))

			if err := registerHealthCheck(app); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bootErr := ui.WithSpinner(cmd.OutOrStdout(), "starting singletons", false, func() error {
				return app.Boot(ctx)
			})
			if bootErr != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.StartupError(bootErr.Error(), false))
				return bootErr
			}

			printRouteTable(cmd.OutOrStdout(), app)

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Serve()
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(cmd.OutOrStdout(), ui.Info("shutdown signal received", false))
				return app.Shutdown(context.Background())
			case err := <-errCh:
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.StartupError(err.Error(), false))
				}
				return err
			}
		},
	}

	cmd.Flags().Int("server.port", 0, "override server.port from corvid.yaml")
	cmd.Flags().String("server.host", "", "override server.host from corvid.yaml")
	cmd.Flags().String("server.api_prefix", "", "override server.api_prefix from corvid.yaml")
	cmd.Flags().Bool("problem.verbose", false, "include internal error detail in 500 responses")

	return cmd
}

type healthCheckRequest struct{}

type healthCheckResponse struct {
	Status string `json:"status"`
}

// registerHealthCheck wires the framework's one built-in route, useful as
// a liveness probe and as a template for application authors' own
// registrations.
func registerHealthCheck(app *corvid.App) error {
	return app.Get("/healthz", func(_ context.Context, _ healthCheckRequest) (healthCheckResponse, error) {
		return healthCheckResponse{Status: "ok"}, nil
	})
}

// printRouteTable renders every registered route before the server starts
// accepting connections, so operators can confirm what's live.
func printRouteTable(w io.Writer, app *corvid.App) {
	table := ui.NewTable(w, []string{"METHOD", "PATTERN"}, nil)
	for _, route := range app.Router.GetRoutes() {
		method := route.Method
		if route.IsWebSocket {
			method = "UPGRADE"
		}
		table.AddRow(method, route.Pattern)
	}
	table.Render()
}
