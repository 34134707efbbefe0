package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/config"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/etl"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/store"
)

func runCmd() *cobra.Command {
	var (
		source      string
		createTable string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full extract, transform and load pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := newPipeline()
			if err != nil {
				return err
			}
			return pipe.Run(cmd.Context(), source, createTable)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "GPX file or directory to extract (overrides the configured location)")
	cmd.Flags().StringVar(&createTable, "create-table", "", "path to a SQL statement file executed before the append")
	return cmd
}

// newPipeline builds a pipeline from the resolved configuration.
func newPipeline() (*etl.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	client := store.NewClient(store.Config{
		DBName:   cfg.Connection.DBName,
		Host:     cfg.Connection.Host,
		Port:     cfg.Connection.Port,
		User:     cfg.Connection.User,
		Password: cfg.Connection.Password,
		SSLMode:  cfg.Connection.SSLMode,
	}, logger)

	return etl.NewPipeline(etl.Options{
		SourceLocation:      cfg.Source,
		TableName:           cfg.Table,
		CreateStatementPath: cfg.CreateTable,
		Threshold:           cfg.Threshold,
	}, client, logger)
}
