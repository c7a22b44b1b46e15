package stabilize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestMetrics_ZeroValue must report zeros rather than dividing by a zero
// frame count.
func TestMetrics_ZeroValue(t *testing.T) {
	var m Metrics
	assert.Zero(t, m.MeanFrameTime())
	assert.Zero(t, m.MeanDrift())
}

// TestMetrics_Averages checks the per-frame aggregates.
func TestMetrics_Averages(t *testing.T) {
	var m Metrics
	m.recordDrift(1.5)
	m.recordDrift(2.5)
	m.recordDrift(2.0)
	m.Elapsed = 300 * time.Millisecond

	assert.Equal(t, 3, m.FramesProcessed)
	assert.InDelta(t, 2.0, m.MeanDrift(), 1e-12)
	assert.Equal(t, 100*time.Millisecond, m.MeanFrameTime())
}
