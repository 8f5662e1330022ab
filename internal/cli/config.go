package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/config"
)

const redacted = "********"

// NewConfigCmd creates the group of configuration commands.
func NewConfigCmd(configFn func() (*config.Config, string, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(
		newConfigShowCmd(configFn, outputFn),
		newConfigInitCmd(outputFn),
		newConfigPathsCmd(outputFn),
	)

	return cmd
}

func newConfigShowCmd(configFn func() (*config.Config, string, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := configFn()
			if err != nil {
				return err
			}
			out := outputFn()

			shown := *cfg
			if shown.Apps.Token != "" {
				shown.Apps.Token = redacted
			}
			if shown.Cache.RedisPassword != "" {
				shown.Cache.RedisPassword = redacted
			}

			if out.JSONMode() {
				return out.JSON(shown)
			}
			if path == "" {
				out.Success("# built-in defaults")
			} else {
				out.Success("# " + path)
			}
			return toml.NewEncoder(out.w).Encode(shown)
		},
	}
}

func newConfigInitCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration to a new file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Configuration written to %s", path))
			return nil
		},
	}
}

func newConfigPathsCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List the locations searched for " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			paths := config.SearchPaths()
			if out.JSONMode() {
				return out.JSON(paths)
			}
			for _, p := range paths {
				out.Text(p)
			}
			return nil
		},
	}
}
