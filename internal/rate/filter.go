package rate

// MovingAverage is a fixed-capacity smoothing filter over the instantaneous
// rate stream. Until the window fills up the average is taken over the
// samples actually fed, so early readings are not biased toward zero. Feed
// and Get run in constant time and do not allocate.
type MovingAverage struct {
	window []float64
	sum    float64
	filled int
	next   int
}

// NewMovingAverage returns an empty filter holding up to capacity samples.
func NewMovingAverage(capacity int) *MovingAverage {
	return &MovingAverage{
		window: make([]float64, capacity),
	}
}

// Feed pushes a sample into the window, evicting the oldest one once the
// window is full, and returns the current average.
func (m *MovingAverage) Feed(value float64) float64 {
	if m.filled < len(m.window) {
		m.filled++
		m.sum += value
	} else {
		m.sum += value - m.window[m.next]
	}
	m.window[m.next] = value
	m.next = (m.next + 1) % len(m.window)

	return m.sum / float64(m.filled)
}

// Get returns the current average without feeding a sample. An empty filter
// reports zero.
func (m *MovingAverage) Get() float64 {
	if m.filled == 0 {
		return 0
	}

	return m.sum / float64(m.filled)
}
