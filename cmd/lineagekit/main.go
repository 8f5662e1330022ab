// lineagekit is a command-line companion to the LineageOS website widgets:
// it lists the apps catalog and their GitHub Actions builds, describes
// devices, compares LineageOS versions and watches builds on a schedule.
//
// Usage:
//
//	lineagekit [--config FILE] [--json] [--log-level LEVEL] <command> [flags]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/cli"
	"github.com/vnykmshr/lineagekit/internal/config"
)

// version is set with -ldflags at build time.
var version = "dev"

func main() {
	var configPath string
	var jsonOutput bool
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:           "lineagekit",
		Short:         "LineageOS apps, builds and devices from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: search "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or text")

	configFn := func() (*config.Config, string, error) {
		cfg, path, err := config.Load(configPath)
		if err != nil {
			return nil, "", err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		return cfg, path, cfg.Validate()
	}

	var env *cli.Env
	envFn := func() (*cli.Env, error) {
		if env != nil {
			return env, nil
		}
		cfg, path, err := configFn()
		if err != nil {
			return nil, err
		}
		env, err = cli.NewEnv(cfg, path, os.Stderr)
		return env, err
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput, os.Stdout, os.Stderr) }

	rootCmd.AddCommand(
		cli.NewAppsCmd(envFn, outputFn),
		cli.NewBuildsCmd(envFn, outputFn),
		cli.NewDevicesCmd(envFn, outputFn),
		cli.NewCompareCmd(outputFn),
		cli.NewBlogCmd(envFn, outputFn),
		cli.NewStatusCmd(envFn, outputFn),
		cli.NewBrowseCmd(envFn),
		cli.NewWatchCmd(envFn, outputFn),
		cli.NewConfigCmd(configFn, outputFn),
	)

	err := rootCmd.Execute()
	if env != nil {
		if cerr := env.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "Error:", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
