// Command almanac serves and inspects the posts and weeks of a blog.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/almanac"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "almanac",
	Short:         "Blog content layer for posts and weeks",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", almanac.EnvOr("ALMANAC_CONFIG", ""), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, checkCmd, importCmd, tagsCmd, archiveCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the almanac version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "almanac %s\n", version)
	},
}

func loadConfig() (almanac.SiteConfig, error) {
	if configPath == "" {
		return almanac.ConfigFromEnv()
	}
	return almanac.LoadConfig(configPath)
}

func newLogger(cfg almanac.SiteConfig) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return almanac.NewLogger(level, cfg.Dev)
}

// openApp loads the configuration and returns an initialized App.
func openApp() (*almanac.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	app := almanac.New(cfg, almanac.WithAppLogger(log))
	if err := app.Init(); err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return app, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
