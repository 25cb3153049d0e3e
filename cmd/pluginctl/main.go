// cmd/pluginctl/main.go
//
// Operator CLI for the plugin host.
//
// Context
// -------
// pluginctl reads the same conf/global.yaml as cmd/web and talks to the
// same control-plane database, so operators can inspect installed plugins,
// edit plugin config rows, and produce enc:v1: values for protected
// manifest overrides without going through the admin API.
//
// Notes
// -----
//   - Logs go to stderr through a development zap logger; stdout carries
//     only command output so it can be piped.
//   - Oxford commas, two spaces after periods.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/adept/cmd/pluginctl/commands"
	"github.com/yanizio/adept/internal/bootstrap"
	"github.com/yanizio/adept/internal/config"
	"github.com/yanizio/adept/internal/logger"
	"github.com/yanizio/adept/internal/secret"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		root  string
		debug bool
	)

	env := &commands.Env{
		Out: os.Stdout,
		Open: func(ctx context.Context) (*commands.Session, error) {
			cfg, err := loadConfig(root)
			if err != nil {
				return nil, err
			}
			rt, err := bootstrap.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return commands.NewSession(rt.Registry, rt.Deps.ConfigRepo, rt.Close), nil
		},
		Secrets: func() (*secret.Resolver, error) {
			cfg, err := loadConfig(root)
			if err != nil {
				return nil, err
			}
			r, err := bootstrap.Secrets(cfg)
			if err != nil {
				return nil, err
			}
			if r == nil {
				return nil, secret.ErrNoKey
			}
			return r, nil
		},
	}

	rootCmd := &cobra.Command{
		Use:           "pluginctl",
		Short:         "Inspect plugins and manage plugin configuration",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if debug {
				level = "debug"
			}
			zap.ReplaceGlobals(logger.Console(level))
		},
	}
	rootCmd.PersistentFlags().StringVar(&root, "root", "", "Project root holding conf/global.yaml (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewPluginsCommand(env),
		commands.NewConfigCommand(env),
		commands.NewEncryptCommand(env),
	)
	return rootCmd.Execute()
}

func loadConfig(root string) (*config.Config, error) {
	if root != "" {
		return config.LoadFrom(root)
	}
	return config.Load()
}
