package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

func main() {
	// Set global logger with custom options; stdout stays free for command
	// output such as preview rows.
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}),
	))

	root := &cobra.Command{
		Use:          "gpxetl",
		Short:        "GPS track ETL pipeline",
		Long:         "Extracts GPX track recordings, flattens and filters them, and appends the result to a Redshift-compatible destination table.",
		SilenceUsage: true,
	}
	root.AddCommand(runCmd(), previewCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
