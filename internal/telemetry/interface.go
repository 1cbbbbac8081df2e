package telemetry

import (
	"context"

	"codeberg.org/treska/revmon/internal/monitor"
)

// Collector persists per-tick measurement snapshots.
type Collector interface {
	Record(ctx context.Context, snapshot *monitor.Snapshot) error
	Close() error
}

// Repository defines the interface for snapshot storage.
type Repository interface {
	Store(snapshot *monitor.Snapshot) error
	Close() error
}
