// Package monitor runs the per-tick measurement sequence: read the raw
// counter register, extend the cumulative position, estimate the rotational
// rate and smooth it.
package monitor

import (
	"time"

	"codeberg.org/treska/revmon/internal/encoder"
	"codeberg.org/treska/revmon/internal/errors"
	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/rate"
)

const (
	defaultCountsPerRev = 4096
	defaultTickPeriod   = 50 * time.Millisecond
	defaultWindow       = 20
)

var errFactory = errors.New()

// Config parameterizes the measurement pipeline. Zero values fall back to
// the reference hardware defaults.
type Config struct {
	CountsPerRev int           // encoder counts per shaft revolution
	TickPeriod   time.Duration // fixed period the tick driver fires at
	Window       int           // smoothing window in ticks
}

// Snapshot is the per-tick output handed to consumers.
type Snapshot struct {
	Timestamp    time.Time
	Raw          uint16
	Position     int64
	Revolutions  float64
	RPM          float64
	SmoothedRPM  float64
	SampleErrors uint64
}

// Monitor owns the tracker, estimator and filter exclusively. It must be
// driven from a single goroutine at the fixed tick period; none of its
// methods block or allocate on the tick path.
type Monitor struct {
	source       encoder.Source
	tracker      *encoder.Tracker
	estimator    *rate.Estimator
	smoother     *rate.MovingAverage
	countsPerRev float64
	sampleErrors uint64
}

func New(src encoder.Source, cfg Config) *Monitor {
	if cfg.CountsPerRev <= 0 {
		cfg.CountsPerRev = defaultCountsPerRev
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = defaultTickPeriod
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}

	return &Monitor{
		source:       src,
		tracker:      encoder.NewTracker(),
		estimator:    rate.NewEstimator(cfg.TickPeriod),
		smoother:     rate.NewMovingAverage(cfg.Window),
		countsPerRev: float64(cfg.CountsPerRev),
	}
}

// Tick executes one measurement sequence and returns the resulting
// snapshot. A failed register read is returned as an error with all state
// untouched. An ambiguous sample is absorbed: the stale position carries
// through, the tick yields a zero positional delta and the occurrence is
// counted in the snapshot.
func (m *Monitor) Tick() (Snapshot, error) {
	raw, err := m.source.CurrentCount()
	if err != nil {
		return Snapshot{}, errFactory.Wrap(ErrReadSample, err)
	}

	if err := m.tracker.Sample(raw); err != nil {
		m.sampleErrors++
		logger.Debug().
			Uint16("raw", raw).
			Uint64("sample_errors", m.sampleErrors).
			Msg("Ambiguous sample skipped")
	}

	revolutions := float64(m.tracker.Count()) / m.countsPerRev
	rpm := m.estimator.Update(revolutions)
	smoothed := m.smoother.Feed(rpm)

	return Snapshot{
		Timestamp:    time.Now(),
		Raw:          raw,
		Position:     m.tracker.Count(),
		Revolutions:  revolutions,
		RPM:          rpm,
		SmoothedRPM:  smoothed,
		SampleErrors: m.sampleErrors,
	}, nil
}

// Reset zeroes the cumulative position and rebases the rate estimator so
// the next tick does not see a spurious displacement. Call it only from the
// goroutine that drives Tick.
func (m *Monitor) Reset() {
	m.tracker.Reset()
	m.estimator.Rebase(0)
}
