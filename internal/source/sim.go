package source

// Sim is a synthetic counter register for tests and hardware-free runs. Each
// read advances the register by the configured per-tick step, wrapping
// modulo 2^16 the way the hardware counter does.
type Sim struct {
	register uint16
	step     int
}

// NewSim returns a simulator advancing by step counts per read. Negative
// steps rotate backward.
func NewSim(step int) *Sim {
	return &Sim{step: step}
}

// SetStep changes the per-read displacement, emulating a velocity change.
func (s *Sim) SetStep(step int) {
	s.step = step
}

// Preset forces the register to a raw value, emulating an arbitrary counter
// state at attach time.
func (s *Sim) Preset(raw uint16) {
	s.register = raw
}

func (s *Sim) CurrentCount() (uint16, error) {
	s.register += uint16(s.step)

	return s.register, nil
}

func (s *Sim) Close() error {
	return nil
}
