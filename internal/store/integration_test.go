package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/store"
)

// Integration tests run against a disposable Postgres container. They are
// gated behind GPXETL_PG_INTEGRATION so the package tests pass without a
// container runtime.
var (
	integration   bool
	integrationDB store.Config
	terminateDB   func()
)

const createStatement = `CREATE TABLE IF NOT EXISTS track_points (
	time TIMESTAMPTZ,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	speed DOUBLE PRECISION,
	course DOUBLE PRECISION
)`

func TestMain(m *testing.M) {
	if os.Getenv("GPXETL_PG_INTEGRATION") == "" {
		os.Exit(m.Run())
	}
	setupPostgresContainer()
	integration = true
	code := m.Run()
	terminateDB()
	os.Exit(code)
}

func setupPostgresContainer() {
	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:17",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
	)
	if err != nil {
		panic(err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		panic(err)
	}

	integrationDB = store.Config{
		DBName:   "testdb",
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		SSLMode:  "disable",
	}

	// Wait for DB to be ready
	for i := 0; i < 10; i++ {
		var conn *pgx.Conn
		conn, err = pgx.Connect(ctx, integrationDB.DSN())
		if err == nil {
			_ = conn.Close(ctx)
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		panic(err)
	}

	terminateDB = func() {
		_ = container.Terminate(ctx)
	}
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if !integration {
		t.Skip("set GPXETL_PG_INTEGRATION=1 to run against a postgres container")
	}
}

func writeStatementFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "create.sql")
	require.NoError(t, os.WriteFile(path, []byte(createStatement), 0o600))
	return path
}

func resetTable(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, integrationDB.DSN())
	require.NoError(t, err)
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, `DROP TABLE IF EXISTS track_points`)
	require.NoError(t, err)
}

func countRows(t *testing.T, where string) int {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, integrationDB.DSN())
	require.NoError(t, err)
	defer conn.Close(ctx)

	query := "SELECT COUNT(*) FROM track_points"
	if where != "" {
		query += " WHERE " + where
	}
	var count int
	require.NoError(t, conn.QueryRow(ctx, query).Scan(&count))
	return count
}

func TestExecStatementFileIsIdempotent(t *testing.T) {
	requireIntegration(t)
	resetTable(t)

	client := store.NewClient(integrationDB, testLogger())
	path := writeStatementFile(t)

	require.NoError(t, client.ExecStatementFile(context.Background(), path))
	require.NoError(t, client.ExecStatementFile(context.Background(), path))
	require.Equal(t, 0, countRows(t, ""))
}

func TestAppendRowsStoresUnion(t *testing.T) {
	requireIntegration(t)
	resetTable(t)

	client := store.NewClient(integrationDB, testLogger())
	require.NoError(t, client.ExecStatementFile(context.Background(), writeStatementFile(t)))

	speed := 3.5
	table := models.NewPointTable(
		models.TrackPoint{Time: time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC), Latitude: 52.2297, Longitude: 21.0122, Speed: &speed},
		models.TrackPoint{Time: time.Date(2021, 6, 1, 8, 0, 5, 0, time.UTC), Latitude: 52.2298, Longitude: 21.0125},
	)

	require.NoError(t, client.AppendRows(context.Background(), "track_points", table))
	require.Equal(t, 2, countRows(t, ""))

	// appending again stores the union, duplicates included
	require.NoError(t, client.AppendRows(context.Background(), "track_points", table))
	require.Equal(t, 4, countRows(t, ""))

	// absent metadata persists as NULL
	require.Equal(t, 2, countRows(t, "speed IS NULL"))
	require.Equal(t, 4, countRows(t, "course IS NULL"))
}

func TestAppendRowsMissingTable(t *testing.T) {
	requireIntegration(t)
	resetTable(t)

	client := store.NewClient(integrationDB, testLogger())
	table := models.NewPointTable(models.TrackPoint{Time: time.Now(), Latitude: 1, Longitude: 1})

	err := client.AppendRows(context.Background(), "track_points", table)
	require.Error(t, err)
	require.ErrorContains(t, err, "append rows")
}

func TestExecStatementFileBadStatement(t *testing.T) {
	requireIntegration(t)

	path := filepath.Join(t.TempDir(), "broken.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE ???"), 0o600))

	client := store.NewClient(integrationDB, testLogger())
	err := client.ExecStatementFile(context.Background(), path)
	require.Error(t, err)
	require.ErrorContains(t, err, "execute statement")
}

func TestRoundTripValues(t *testing.T) {
	requireIntegration(t)
	resetTable(t)

	client := store.NewClient(integrationDB, testLogger())
	require.NoError(t, client.ExecStatementFile(context.Background(), writeStatementFile(t)))

	course := 181.5
	stamp := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	table := models.NewPointTable(models.TrackPoint{Time: stamp, Latitude: 52.2297, Longitude: 21.0122, Course: &course})
	require.NoError(t, client.AppendRows(context.Background(), "track_points", table))

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, integrationDB.DSN())
	require.NoError(t, err)
	defer conn.Close(ctx)

	var (
		gotTime time.Time
		lat     float64
		lon     float64
		speed   *float64
		gotCrs  *float64
	)
	row := conn.QueryRow(ctx, `SELECT time, latitude, longitude, speed, course FROM track_points`)
	require.NoError(t, row.Scan(&gotTime, &lat, &lon, &speed, &gotCrs))
	require.True(t, stamp.Equal(gotTime))
	require.Equal(t, 52.2297, lat)
	require.Equal(t, 21.0122, lon)
	require.Nil(t, speed)
	require.NotNil(t, gotCrs)
	require.Equal(t, 181.5, *gotCrs)
}
