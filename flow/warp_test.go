package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"vidstab/flow"
)

func zeros(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	return gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
}

// TestWarp_Identity verifies that an all-zero field reproduces the input
// exactly: query points coincide with grid points, so no interpolation error
// is allowed.
func TestWarp_Identity(t *testing.T) {
	img := gridFromFunc(t, 24, 36, func(r, c int) float64 { return texture(float64(r), float64(c)) })
	defer img.Close()
	u := zeros(t, 24, 36)
	defer u.Close()
	v := zeros(t, 24, 36)
	defer v.Close()

	warped, err := flow.Warp(img, u, v)
	require.NoError(t, err)
	defer warped.Close()

	for r := 0; r < img.Rows(); r++ {
		for c := 0; c < img.Cols(); c++ {
			require.Equal(t, img.GetDoubleAt(r, c), warped.GetDoubleAt(r, c),
				"pixel (%d,%d) must be bit-identical", r, c)
		}
	}
}

// TestWarp_IntegerShift verifies sampling direction and the hole-fill policy:
// a uniform u=+1 field samples one column to the right, and the rightmost
// column, whose query point leaves the grid, keeps its original value.
func TestWarp_IntegerShift(t *testing.T) {
	img := gridFromFunc(t, 16, 16, func(r, c int) float64 { return float64(r*100 + c) })
	defer img.Close()
	u := gridFromFunc(t, 16, 16, func(r, c int) float64 { return 1 })
	defer u.Close()
	v := zeros(t, 16, 16)
	defer v.Close()

	warped, err := flow.Warp(img, u, v)
	require.NoError(t, err)
	defer warped.Close()

	for r := 0; r < 16; r++ {
		for c := 0; c < 15; c++ {
			require.Equal(t, img.GetDoubleAt(r, c+1), warped.GetDoubleAt(r, c),
				"pixel (%d,%d) must sample one column right", r, c)
		}
		require.Equal(t, img.GetDoubleAt(r, 15), warped.GetDoubleAt(r, 15),
			"out-of-grid query at row %d must keep the source value", r)
	}
}

// TestWarp_SubpixelShift verifies bilinear interpolation on a linear ramp,
// where the interpolant is exact.
func TestWarp_SubpixelShift(t *testing.T) {
	img := gridFromFunc(t, 12, 20, func(r, c int) float64 { return float64(c) })
	defer img.Close()
	u := gridFromFunc(t, 12, 20, func(r, c int) float64 { return 0.5 })
	defer u.Close()
	v := zeros(t, 12, 20)
	defer v.Close()

	warped, err := flow.Warp(img, u, v)
	require.NoError(t, err)
	defer warped.Close()

	for r := 2; r < 10; r++ {
		for c := 2; c < 18; c++ {
			require.InDelta(t, float64(c)+0.5, warped.GetDoubleAt(r, c), 1e-12,
				"pixel (%d,%d)", r, c)
		}
	}
}

// TestWarp_RescaleLaw verifies that a half-resolution field is resized to the
// image shape and its values doubled: a uniform half-resolution u=1 moves
// full-resolution content by two pixels.
func TestWarp_RescaleLaw(t *testing.T) {
	img := gridFromFunc(t, 32, 32, func(r, c int) float64 { return float64(c) })
	defer img.Close()
	u := gridFromFunc(t, 16, 16, func(r, c int) float64 { return 1 })
	defer u.Close()
	v := zeros(t, 16, 16)
	defer v.Close()

	warped, err := flow.Warp(img, u, v)
	require.NoError(t, err)
	defer warped.Close()

	for r := 4; r < 28; r++ {
		for c := 4; c < 28; c++ {
			require.InDelta(t, float64(c)+2, warped.GetDoubleAt(r, c), 1e-9,
				"pixel (%d,%d) must move by twice the coarse displacement", r, c)
		}
	}
}

// TestWarp_Errors verifies the warper's preconditions. A field/image shape
// difference is legal (it triggers rescaling); a u/v mismatch is not.
func TestWarp_Errors(t *testing.T) {
	img := gridFromFunc(t, 16, 16, func(r, c int) float64 { return 1 })
	defer img.Close()
	u := zeros(t, 8, 8)
	defer u.Close()
	v := zeros(t, 8, 4)
	defer v.Close()
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := flow.Warp(img, u, v)
	assert.ErrorIs(t, err, flow.ErrShapeMismatch, "u/v shape mismatch must error")

	_, err = flow.Warp(empty, u, u)
	assert.ErrorIs(t, err, flow.ErrEmptyInput, "empty image must error")

	warped, err := flow.Warp(img, u, u)
	require.NoError(t, err, "field/image shape difference is legal")
	warped.Close()
}
