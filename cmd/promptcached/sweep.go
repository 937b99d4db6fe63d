package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-prompt-cache/internal/config"
	"github.com/goliatone/go-prompt-cache/pkg/di"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reconciliation sweep and print the result",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	container, err := di.NewContainer(cfg, di.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := cmd.Context()
	if err := container.Init(ctx); err != nil {
		return err
	}

	result, err := container.Sweeper().RunSweep(ctx, time.Now())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
