package main

import (
	"log/slog"
	"os"

	"github.com/enesbrtc/enes.codes/internal/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	cli.Execute()
}
