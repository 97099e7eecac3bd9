package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/spf13/cobra"
)

func requestLogFormat() string {
	format := []string{
		"${time}",
		"${status}|${latency}",
		"${ip}",
		"${method}|${path}",
		"${errors}",
	}
	return strings.Join(format, "|") + "\n"
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local operator console",
		Long: `Serve the operator console: the sign-in page, the guarded AssessAssist
screens and /session. /metrics is exposed unless console.metrics is false.

The server shuts down gracefully on SIGINT or SIGTERM.

Example:
  assessgate serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			if addr == "" {
				addr = a.Config.Console.Addr
			}

			server := fiber.New()
			server.Use(logger.New(logger.Config{
				Format:     requestLogFormat(),
				TimeFormat: "2006/01/02 15:04:05",
				TimeZone:   "Local",
			}))

			if _, err := a.Console(server); err != nil {
				return err
			}

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
			}()

			a.Logger.WithField("addr", addr).Info("console listening")
			fmt.Fprintf(cmd.OutOrStdout(), "Console: http://%s\n", addr)

			select {
			case err := <-serverErr:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil

			case <-cmd.Context().Done():
				a.Logger.Info("shutting down console")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.ShutdownWithContext(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown error: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from console.addr)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "maximum time to drain connections on shutdown")

	return cmd
}
