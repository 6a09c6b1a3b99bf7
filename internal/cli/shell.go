package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/enesbrtc/enes.codes/internal/store"
	"github.com/enesbrtc/enes.codes/internal/terminal"
	"github.com/enesbrtc/enes.codes/internal/tui"
)

// localVisitor is the visitor id used for the console terminal.
const localVisitor = "local-console"

func newShellCmd(load loader) *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run the terminal in this console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			// The console belongs to the TUI; logs would corrupt it.
			if err := setupLogging(cfg, io.Discard); err != nil {
				return err
			}

			opts := terminal.Options{BootDelay: cfg.BootDelay}
			if !ephemeral {
				st, err := store.Open(cmd.Context(), cfg.DBPath)
				if err != nil {
					return err
				}
				defer st.Close()
				if _, err := st.Visitors().Touch(cmd.Context(), localVisitor); err != nil {
					return err
				}
				state := st.ForVisitor(localVisitor)
				opts.Flags = state
				opts.Log = state
			}

			term, err := terminal.New(opts)
			if err != nil {
				return err
			}
			defer term.Close()
			return tui.Run(cmd.Context(), term)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep flags and history in memory only")
	return cmd
}
