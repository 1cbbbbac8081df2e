// Package rate derives a rotational rate from the per-tick position stream
// and smooths it over a fixed window.
package rate

import "time"

// Estimator turns the position sampled at a fixed tick period into an
// instantaneous rate in position units per minute.
type Estimator struct {
	lastPosition float64
	perMinute    float64
}

// NewEstimator returns an estimator for the given tick period.
func NewEstimator(tick time.Duration) *Estimator {
	return &Estimator{
		perMinute: time.Minute.Seconds() / tick.Seconds(),
	}
}

// Update records the position observed on this tick and returns the rate
// over the elapsed tick period. The position is latched unconditionally, so
// a tick on which the counter reported an ambiguous sample simply carries
// the unchanged position and yields a zero rate.
func (e *Estimator) Update(position float64) float64 {
	delta := position - e.lastPosition
	e.lastPosition = position

	return delta * e.perMinute
}

// Rebase latches a new reference position without producing a rate, for use
// after the cumulative counter has been reset.
func (e *Estimator) Rebase(position float64) {
	e.lastPosition = position
}
