// Package cli is the enesterm command line: serve the browser terminal or run
// it in the local console.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/enesbrtc/enes.codes/internal/config"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "enesterm",
		Short:         "enes.codes engineering workstation terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/enesterm/config)")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newShellCmd(load), newConfigCmd(load))
	return root
}

type loader func(cmd *cobra.Command) (*config.Config, error)

// addConfigFlags registers the overridable settings with default values so
// that --help shows them.
func addConfigFlags(cmd *cobra.Command) {
	defaults, err := config.Load("")
	if err != nil {
		defaults = &config.Config{Port: config.DefaultPort, LogLevel: config.DefaultLogLevel, BootDelay: config.DefaultBootDelay}
	}
	defaults.RegisterFlags(cmd.Flags())
}

func setupLogging(cfg *config.Config, w io.Writer) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("enesterm failed", "error", err)
		os.Exit(1)
	}
}
