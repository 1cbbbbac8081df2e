// Package encoder reconstructs an unbounded shaft position from a 16-bit
// quadrature counter register that wraps on overflow and underflow.
package encoder

import "codeberg.org/treska/revmon/internal/errors"

// threshold is half the register range. An observed change below it is a
// small in-range move; above it, a wrap in the opposite direction; exactly
// on it, the direction is unknowable.
const threshold = 1 << 15

var errFactory = errors.New()

// Tracker extends a 16-bit counter register into a signed 64-bit cumulative
// position by disambiguating wraps between consecutive samples. The caller
// must sample often enough that the true displacement between two samples
// stays strictly below 2^15 counts; Tracker can only detect the exact
// boundary, larger violations silently alias to the wrong direction.
//
// Tracker is owned by a single goroutine. Sample, Count and Reset perform no
// allocation and run in constant time, so they are safe to call from a
// time-critical tick handler.
type Tracker struct {
	position int64
	previous uint16
}

// NewTracker returns a Tracker with both the position and the last observed
// register value at zero.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Sample feeds the next raw register value into the tracker. On success the
// cumulative position absorbs the signed circular displacement since the
// previous sample. When the displacement is exactly 2^15 the wrap direction
// cannot be decided; Sample returns ErrSampleTooFar and leaves all state
// unchanged so the caller can retry on the next tick.
func (t *Tracker) Sample(raw uint16) error {
	switch {
	case raw == t.previous:
		return nil
	case raw > t.previous:
		// Arithmetic on uint16 wraps modulo 2^16
		diff := raw - t.previous
		switch {
		case diff < threshold:
			// Forward motion, no wrap
			t.position += int64(diff)
		case diff > threshold:
			// Backward motion across an underflow
			t.position -= 1<<16 - int64(diff)
		default:
			return errFactory.New(ErrSampleTooFar)
		}
	default:
		diff := t.previous - raw
		switch {
		case diff < threshold:
			// Backward motion, no wrap
			t.position -= int64(diff)
		case diff > threshold:
			// Forward motion across an overflow
			t.position += 1<<16 - int64(diff)
		default:
			return errFactory.New(ErrSampleTooFar)
		}
	}
	t.previous = raw

	return nil
}

// Count returns the cumulative position.
func (t *Tracker) Count() int64 {
	return t.position
}

// Reset zeroes the cumulative position. The last observed register value is
// kept, so the next Sample call measures displacement from the current
// physical position instead of producing a spurious jump.
func (t *Tracker) Reset() {
	t.position = 0
}
