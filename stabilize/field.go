package stabilize

import (
	"fmt"

	"gocv.io/x/gocv"
)

// meanInterior returns the mean of m over the region that excludes border
// rows and columns on every side. The excluded band matches the window
// margin where the estimator leaves displacements at zero, so averaging over
// it would bias the global motion toward zero. Returns 0 when no interior
// remains.
func meanInterior(m gocv.Mat, border int) (float64, error) {
	rows := m.Rows()
	cols := m.Cols()
	if rows <= 2*border || cols <= 2*border {
		return 0, nil
	}

	data, err := m.DataPtrFloat64()
	if err != nil {
		return 0, fmt.Errorf("field buffer access failed: %w", err)
	}

	var sum float64
	for r := border; r < rows-border; r++ {
		base := r * cols
		for c := border; c < cols-border; c++ {
			sum += data[base+c]
		}
	}
	count := float64((rows - 2*border) * (cols - 2*border))
	return sum / count, nil
}

// fillInterior overwrites the interior region of m with value, leaving the
// border band untouched.
func fillInterior(m gocv.Mat, border int, value float64) error {
	rows := m.Rows()
	cols := m.Cols()
	if rows <= 2*border || cols <= 2*border {
		return nil
	}

	data, err := m.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("field buffer access failed: %w", err)
	}

	for r := border; r < rows-border; r++ {
		base := r * cols
		for c := border; c < cols-border; c++ {
			data[base+c] = value
		}
	}
	return nil
}

// addField accumulates src into dst elementwise. Shapes must match.
func addField(dst, src gocv.Mat) error {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		return fmt.Errorf("field shapes do not match: %dx%d vs %dx%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols())
	}

	dstData, err := dst.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("field buffer access failed: %w", err)
	}
	srcData, err := src.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("field buffer access failed: %w", err)
	}
	for i := range dstData {
		dstData[i] += srcData[i]
	}
	return nil
}
