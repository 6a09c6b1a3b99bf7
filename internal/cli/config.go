package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			token := cfg.Token
			if token != "" {
				token = "(set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config:     %s\n", cfg.ConfigPath)
			fmt.Fprintf(cmd.OutOrStdout(), "port:       %d\n", cfg.Port)
			fmt.Fprintf(cmd.OutOrStdout(), "token:      %s\n", token)
			fmt.Fprintf(cmd.OutOrStdout(), "db:         %s\n", cfg.DBPath)
			fmt.Fprintf(cmd.OutOrStdout(), "cv:         %s\n", cfg.CVPath)
			fmt.Fprintf(cmd.OutOrStdout(), "log level:  %s\n", cfg.LogLevel)
			fmt.Fprintf(cmd.OutOrStdout(), "boot delay: %s\n", cfg.BootDelay)
			return nil
		},
	}
	addConfigFlags(cmd)

	save := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", cfg.ConfigPath)
			return nil
		},
	}
	addConfigFlags(save)
	cmd.AddCommand(save)
	return cmd
}
