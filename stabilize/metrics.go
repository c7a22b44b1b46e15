package stabilize

import "time"

// Metrics summarizes a stabilization run.
type Metrics struct {
	FramesProcessed int
	Elapsed         time.Duration

	driftSum float64
}

// recordDrift accumulates the magnitude of one frame's global motion
// estimate.
func (m *Metrics) recordDrift(magnitude float64) {
	m.driftSum += magnitude
	m.FramesProcessed++
}

// MeanFrameTime returns the average wall time spent per processed frame.
func (m Metrics) MeanFrameTime() time.Duration {
	if m.FramesProcessed == 0 {
		return 0
	}
	return m.Elapsed / time.Duration(m.FramesProcessed)
}

// MeanDrift returns the average per-frame global motion magnitude in pixels
// at working resolution.
func (m Metrics) MeanDrift() float64 {
	if m.FramesProcessed == 0 {
		return 0
	}
	return m.driftSum / float64(m.FramesProcessed)
}
