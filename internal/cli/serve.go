package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/enesbrtc/enes.codes/internal/hub"
	"github.com/enesbrtc/enes.codes/internal/metrics"
	"github.com/enesbrtc/enes.codes/internal/server"
	"github.com/enesbrtc/enes.codes/internal/store"
)

func newServeCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser terminal over HTTP and websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg, os.Stdout); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			opts := []hub.Option{hub.WithRecorder(m)}
			if cfg.Token != "" {
				opts = append(opts, hub.WithToken(cfg.Token))
			}
			h := hub.New(server.TerminalOpener(st, m, cfg.BootDelay), opts...)
			hubCtx, cancelHub := context.WithCancel(context.Background())
			defer cancelHub()
			go h.Run(hubCtx)

			srv, err := server.New(cfg, h, st, m)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://localhost:%d", cfg.Port)
			if cfg.Token != "" {
				url += "?token=" + cfg.Token
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nenesterm running at %s\n\n", url)
			slog.Info("store opened", "path", cfg.DBPath)

			return srv.Start(ctx)
		},
	}
	addConfigFlags(cmd)
	return cmd
}
