// Package etl runs the extract, transform and load stages over GPS track
// recordings. A Pipeline accumulates the output of each stage, so stages can
// be driven one by one or all at once through Run.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/anomaly"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/gpx"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/store"
)

// Options carries the externally configured pipeline settings. TableName is
// the destination table for appends. CreateStatementPath optionally points at
// a SQL file executed and committed before the first append. SourceLocation
// is the default extract location when Extract is called without one.
// Threshold is the anomaly filter cutoff; zero means anomaly.DefaultThreshold.
type Options struct {
	SourceLocation      string
	TableName           string
	CreateStatementPath string
	Threshold           float64
}

// Pipeline owns the mutable working state of one extract, transform and load
// sequence. Each stage stores its output and the next stage consumes it, so a
// later call can rely on an earlier one. Not safe for concurrent use.
type Pipeline struct {
	opts   Options
	store  store.Store
	logger *slog.Logger

	sourceLocation      string
	createStatementPath string
	tracks              []gpx.Track
	table               *models.PointTable
}

// NewPipeline returns a pipeline persisting into st.
func NewPipeline(opts Options, st store.Store, logger *slog.Logger) (*Pipeline, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if opts.Threshold == 0 {
		opts.Threshold = anomaly.DefaultThreshold
	}
	return &Pipeline{
		opts:                opts,
		store:               st,
		logger:              logger,
		sourceLocation:      opts.SourceLocation,
		createStatementPath: opts.CreateStatementPath,
		table:               models.NewPointTable(),
	}, nil
}

// Extract parses the GPX file or directory at location into the pipeline's
// track list. A non-empty location is stored and used by later calls; an
// empty one falls back to the stored location. A location ending in ".gpx" is
// parsed as a single file; anything else is read as a directory whose regular
// files are each parsed as track files, non-recursively. A failure in any
// file fails the whole call and leaves the stored track list untouched; the
// stored location keeps the new value either way.
func (p *Pipeline) Extract(location string) ([]gpx.Track, error) {
	if location != "" {
		p.sourceLocation = location
	}
	if p.sourceLocation == "" {
		return nil, &ConfigurationError{Reason: "source location is not set"}
	}

	var (
		tracks []gpx.Track
		err    error
	)
	if strings.HasSuffix(p.sourceLocation, ".gpx") {
		tracks, err = gpx.ParseFile(p.sourceLocation)
	} else {
		tracks, err = extractDir(p.sourceLocation)
	}
	if err != nil {
		return nil, err
	}

	p.tracks = tracks
	p.logger.Info("tracks extracted", "location", p.sourceLocation, "tracks", len(tracks))
	return p.tracks, nil
}

// extractDir parses every regular file in dir as a track file. Directories
// and other non-regular entries are skipped; symlinks are resolved first.
func extractDir(dir string) ([]gpx.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}
	var tracks []gpx.Track
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		parsed, err := gpx.ParseFile(path)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, parsed...)
	}
	return tracks, nil
}

// Transform flattens the track list into the point table and filters
// anomalous samples in place. A non-empty tracks argument replaces the stored
// list; with nil the tracks from the last Extract are consumed. The filtered
// table is stored and returned.
func (p *Pipeline) Transform(tracks []gpx.Track) (*models.PointTable, error) {
	if len(tracks) > 0 {
		p.tracks = tracks
	} else if len(p.tracks) == 0 {
		return nil, &ConfigurationError{Reason: "track data was not provided"}
	}

	table, err := Flatten(p.tracks)
	if err != nil {
		return nil, err
	}
	anomaly.Filter(table, p.opts.Threshold)
	p.table = table
	p.logger.Info("tracks transformed", "rows", p.table.Len())
	return p.table, nil
}

// Load persists the point table into the destination table, creating it first
// when a create statement is known. A non-nil override must be a
// *models.PointTable with the canonical column set; it replaces the stored
// table before persisting, and a wrong-shaped override leaves the pipeline
// state untouched. A non-empty createStatementPath replaces the configured
// statement path. Store failures come back as *store.Error; whether they
// abort anything is the caller's policy.
func (p *Pipeline) Load(ctx context.Context, override any, createStatementPath string) error {
	if override != nil {
		table, ok := override.(*models.PointTable)
		if !ok {
			return &ValidationError{Reason: fmt.Sprintf("table override must be a *models.PointTable, got %T", override)}
		}
		if !table.IsTabular() {
			return &ValidationError{Reason: "table override does not have the canonical column set"}
		}
		p.table = table
	}
	if p.table.Len() == 0 {
		return &ConfigurationError{Reason: "point table is empty"}
	}
	if p.opts.TableName == "" {
		return &ConfigurationError{Reason: "destination table name is not configured"}
	}

	if createStatementPath != "" {
		p.createStatementPath = createStatementPath
	}
	if p.createStatementPath != "" {
		if err := p.store.ExecStatementFile(ctx, p.createStatementPath); err != nil {
			return err
		}
		p.logger.Info("destination table created if not existed", "statement", p.createStatementPath)
	}

	if err := p.store.AppendRows(ctx, p.opts.TableName, p.table); err != nil {
		return err
	}
	p.logger.Info("data saved to destination store", "table", p.opts.TableName, "rows", p.table.Len())
	return nil
}

// Run executes extract, transform and load in sequence. location and
// createStatementPath are optional overrides passed through to the stages.
// Extract and transform failures abort the run. A store failure during load
// is logged and swallowed; every other load error aborts.
func (p *Pipeline) Run(ctx context.Context, location, createStatementPath string) error {
	logger := p.logger.With("run_id", uuid.NewString())

	logger.Info("pipeline starting")
	if _, err := p.Extract(location); err != nil {
		return err
	}
	if _, err := p.Transform(nil); err != nil {
		return err
	}
	if err := p.Load(ctx, nil, createStatementPath); err != nil {
		var storeErr *store.Error
		if !errors.As(err, &storeErr) {
			return err
		}
		logger.Error("failed to persist point table", "error", storeErr)
	}
	logger.Info("pipeline executed successfully")
	return nil
}
