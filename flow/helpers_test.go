package flow_test

import (
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// gridFromFunc builds a CV_64F Mat whose pixel (r, c) holds f(r, c).
func gridFromFunc(t *testing.T, rows, cols int, f func(r, c int) float64) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.SetDoubleAt(r, c, f(r, c))
		}
	}
	return m
}

// texture is a smooth pattern with two-dimensional structure everywhere, so
// the windowed second-moment matrix stays well conditioned away from the
// image border.
func texture(r, c float64) float64 {
	return 100*math.Sin(0.3*c+1.0)*math.Cos(0.25*r+0.4) + 128
}

// maxAbs returns the largest absolute value in a CV_64F Mat.
func maxAbs(t *testing.T, m gocv.Mat) float64 {
	t.Helper()
	var max float64
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if v := math.Abs(m.GetDoubleAt(r, c)); v > max {
				max = v
			}
		}
	}
	return max
}

// meanRegion averages m over the rectangle [r0, r1) x [c0, c1).
func meanRegion(t *testing.T, m gocv.Mat, r0, r1, c0, c1 int) float64 {
	t.Helper()
	var sum float64
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			sum += m.GetDoubleAt(r, c)
		}
	}
	return sum / float64((r1-r0)*(c1-c0))
}

// countNonzero counts entries with magnitude above eps.
func countNonzero(t *testing.T, m gocv.Mat, eps float64) int {
	t.Helper()
	n := 0
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if math.Abs(m.GetDoubleAt(r, c)) > eps {
				n++
			}
		}
	}
	return n
}
