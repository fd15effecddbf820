package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uigen/handler"
	"uigen/internal/config"
	"uigen/internal/transport"
)

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.newApp(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			h, err := handler.NewHandler(a.Service,
				handler.WithLogger(a.Logger),
				handler.WithAuthToken(a.Config.Auth.Token),
			)
			if err != nil {
				return err
			}
			router := transport.NewRouter(h, a.Logger, transport.Options{
				MaxBodyBytes:   a.Config.Server.MaxBodyBytes,
				AllowedOrigins: a.Config.Server.AllowedOrigins,
				MetricsEnabled: a.Config.Metrics.Enabled,
			})
			return transport.Serve(ctx, a.Config.Server, router, a.Logger)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "", fmt.Sprintf("Listen host. (env: %s_SERVER_HOST)", config.EnvPrefix))
	flags.Int("port", 0, fmt.Sprintf("Listen port. (env: %s_SERVER_PORT)", config.EnvPrefix))
	flags.String("auth-token", "", fmt.Sprintf("Bearer token required on generation routes. (env: %s_AUTH_TOKEN)", config.EnvPrefix))
	flags.Bool("metrics", true, fmt.Sprintf("Expose Prometheus metrics on /metrics. (env: %s_METRICS_ENABLED)", config.EnvPrefix))

	c.bind(flags, map[string]string{
		config.KeyServerHost:     "host",
		config.KeyServerPort:     "port",
		config.KeyAuthToken:      "auth-token",
		config.KeyMetricsEnabled: "metrics",
	})
	return cmd
}
