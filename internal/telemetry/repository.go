package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/treska/revmon/internal/errors"
	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/monitor"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS samples (
            timestamp INTEGER PRIMARY KEY,
            raw_count INTEGER,
            position INTEGER,
            revolutions REAL,
            rpm REAL,
            smoothed_rpm REAL,
            sample_errors INTEGER
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}

func (r *sqliteRepository) Store(snapshot *monitor.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
        INSERT INTO samples (
            timestamp, raw_count, position,
            revolutions, rpm, smoothed_rpm, sample_errors
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            raw_count = excluded.raw_count,
            position = excluded.position,
            revolutions = excluded.revolutions,
            rpm = excluded.rpm,
            smoothed_rpm = excluded.smoothed_rpm,
            sample_errors = excluded.sample_errors
    `,
		snapshot.Timestamp.UnixMilli(),
		snapshot.Raw,
		snapshot.Position,
		snapshot.Revolutions,
		snapshot.RPM,
		snapshot.SmoothedRPM,
		snapshot.SampleErrors,
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
