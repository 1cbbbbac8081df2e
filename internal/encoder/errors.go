package encoder

import "codeberg.org/treska/revmon/internal/errors"

const (
	// ErrSampleTooFar is returned when two consecutive samples are exactly
	// half the register range apart, making the wrap direction ambiguous.
	ErrSampleTooFar = errors.ErrorCode("encoder_sample_too_far")
)

// IsSampleTooFar reports whether err is the sampling ambiguity error. The
// recommended handling is skip-and-continue: keep the stale state and retry
// disambiguation on the next tick.
func IsSampleTooFar(err error) bool {
	return errors.HasCode(err, ErrSampleTooFar)
}
