package encoder

// Source is a snapshot view of the hardware counter register. It is read
// exactly once per tick, immediately before Tracker.Sample. The register is
// expected to count monotonically with rotation and wrap modulo 2^16.
type Source interface {
	CurrentCount() (uint16, error)
}
