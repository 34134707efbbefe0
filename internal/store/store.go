// Package store persists point tables into a Postgres-wire destination such
// as Redshift or PostgreSQL. Every operation opens its own connection for the
// duration of the call and releases it unconditionally; nothing is pooled or
// shared across calls.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
)

// Store is the destination the pipeline persists point tables into.
type Store interface {
	// ExecStatementFile runs the SQL statement stored at path and commits it.
	ExecStatementFile(ctx context.Context, path string) error
	// AppendRows bulk-appends every row of t to the named destination table.
	AppendRows(ctx context.Context, table string, t *models.PointTable) error
}

// Error is a failure raised while talking to the destination store. Callers
// decide whether it aborts anything; the pipeline orchestrator reports it and
// carries on, unlike every other error kind.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config carries the connection parameters for the destination store. SSLMode
// is optional; empty leaves the driver default in place.
type Config struct {
	DBName   string
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// DSN returns the postgres connection URL for the configured destination.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.SSLMode)
	}
	return u.String()
}

// Client implements Store against a Postgres-wire destination.
type Client struct {
	cfg Config
	log *slog.Logger
}

// NewClient returns a client for the configured destination. The client holds
// no connection; each operation dials and releases its own.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: logger.With("context", "store"),
	}
}

// ExecStatementFile reads the SQL file at path, executes it on a dedicated
// connection and commits. The connection is released whether or not the
// statement succeeds.
func (c *Client) ExecStatementFile(ctx context.Context, path string) error {
	stmt, err := os.ReadFile(path)
	if err != nil {
		return &Error{Op: "read statement file", Err: err}
	}

	db, err := sql.Open("postgres", c.cfg.DSN())
	if err != nil {
		return &Error{Op: "open statement connection", Err: err}
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			c.log.Warn("failed to close statement connection", "error", cerr)
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin transaction", Err: err}
	}
	if _, err := tx.ExecContext(ctx, string(stmt)); err != nil {
		_ = tx.Rollback()
		return &Error{Op: "execute statement", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit statement", Err: err}
	}
	return nil
}

// AppendRows copies every row of t into the named table on a dedicated
// connection. Existing rows are never touched; loading the same table twice
// stores the union.
func (c *Client) AppendRows(ctx context.Context, table string, t *models.PointTable) error {
	conn, err := pgx.Connect(ctx, c.cfg.DSN())
	if err != nil {
		return &Error{Op: "open append connection", Err: err}
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			c.log.Warn("failed to close append connection", "error", cerr)
		}
	}()

	rows := make([][]any, 0, t.Len())
	for _, p := range t.Rows() {
		rows = append(rows, []any{p.Time, p.Latitude, p.Longitude, p.Speed, p.Course})
	}

	copied, err := conn.CopyFrom(ctx, pgx.Identifier{table}, models.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return &Error{Op: "append rows", Err: err}
	}
	if copied != int64(len(rows)) {
		return &Error{Op: "append rows", Err: fmt.Errorf("copied %d of %d rows", copied, len(rows))}
	}
	return nil
}
