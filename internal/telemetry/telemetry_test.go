package telemetry_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/monitor"
	"codeberg.org/treska/revmon/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	os.Exit(m.Run())
}

func TestValidate(t *testing.T) {
	cfg := telemetry.Config{Enabled: true}
	require.Error(t, cfg.Validate(), "enabled telemetry requires a database path")

	cfg = telemetry.Config{Enabled: false}
	require.NoError(t, cfg.Validate())
}

func TestDisabledCollectorIsNoop(t *testing.T) {
	collector, err := telemetry.NewService(telemetry.Config{Enabled: false})
	require.NoError(t, err)
	defer collector.Close()

	require.NoError(t, collector.Record(context.Background(), nil))
}

func TestRecordRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)

	snap := &monitor.Snapshot{
		Timestamp:    time.Unix(1700000000, 0),
		Raw:          2464,
		Position:     68000,
		Revolutions:  16.6015625,
		RPM:          600,
		SmoothedRPM:  598.5,
		SampleErrors: 1,
	}
	require.NoError(t, collector.Record(context.Background(), snap))
	require.NoError(t, collector.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		position     int64
		rpm          float64
		smoothed     float64
		sampleErrors uint64
	)
	row := db.QueryRow(`SELECT position, rpm, smoothed_rpm, sample_errors FROM samples WHERE timestamp = ?`,
		snap.Timestamp.UnixMilli())
	require.NoError(t, row.Scan(&position, &rpm, &smoothed, &sampleErrors))

	assert.Equal(t, int64(68000), position)
	assert.InDelta(t, 600, rpm, 1e-9)
	assert.InDelta(t, 598.5, smoothed, 1e-9)
	assert.Equal(t, uint64(1), sampleErrors)
}

func TestRecordNilSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	require.Error(t, collector.Record(context.Background(), nil))
}
