// Package testutil provides shared test stubs for the pipeline packages.
package testutil

import (
	"context"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
)

// StubStore is a configurable in-memory stand-in for the destination store.
// It records every call so tests can verify order and payloads, and returns
// the configured errors.
type StubStore struct {
	ExecErr   error
	AppendErr error

	// Call records for verification in tests
	Ops          []string
	ExecPaths    []string
	AppendTables []string
	AppendedRows [][]models.TrackPoint
}

// NewStubStore creates an empty stub.
func NewStubStore() *StubStore {
	return &StubStore{}
}

// WithErrors configures the stub to fail statement execution or appends.
func (s *StubStore) WithErrors(execErr, appendErr error) *StubStore {
	s.ExecErr = execErr
	s.AppendErr = appendErr
	return s
}

// ExecStatementFile records the statement path and returns the configured
// error.
func (s *StubStore) ExecStatementFile(ctx context.Context, path string) error {
	s.Ops = append(s.Ops, "exec")
	s.ExecPaths = append(s.ExecPaths, path)
	return s.ExecErr
}

// AppendRows snapshots the table rows and returns the configured error.
func (s *StubStore) AppendRows(ctx context.Context, table string, t *models.PointTable) error {
	s.Ops = append(s.Ops, "append")
	s.AppendTables = append(s.AppendTables, table)
	s.AppendedRows = append(s.AppendedRows, append([]models.TrackPoint(nil), t.Rows()...))
	return s.AppendErr
}

// ExecCalls returns how many times a statement file was executed.
func (s *StubStore) ExecCalls() int {
	return len(s.ExecPaths)
}

// AppendCalls returns how many times rows were appended.
func (s *StubStore) AppendCalls() int {
	return len(s.AppendTables)
}
