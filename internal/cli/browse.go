package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/lineageapps"
	"github.com/vnykmshr/lineagekit/internal/telemetry"
	"github.com/vnykmshr/lineagekit/internal/tui"
)

// NewBrowseCmd creates the interactive apps browser command.
func NewBrowseCmd(envFn func() (*Env, error)) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse apps and their builds interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}

			// The terminal belongs to the browser; logs go to a file or nowhere.
			var logger *slog.Logger
			if logFile == "" {
				logger = telemetry.NewLogger(env.Config.Logging.Level, env.Config.Logging.Format, io.Discard)
			} else {
				f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logger = telemetry.NewLogger(env.Config.Logging.Level, env.Config.Logging.Format, f)
			}

			fetcher := *env.Fetcher
			fetcher.Logger = logger
			apps, err := lineageapps.LoadApps(cmd.Context(), &fetcher, env.Config.Apps.Catalog)
			if err != nil {
				return err
			}

			client := env.Apps.WithLogger(logger)
			return tui.Run(cmd.Context(), apps, client, client.Endpoints(), telemetry.WithComponent(logger, "tui"))
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while browsing")

	return cmd
}
