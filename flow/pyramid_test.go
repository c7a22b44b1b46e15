package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"vidstab/flow"
)

// TestBuildPyramid_ShapeLaw verifies the level count and the ceil-halving of
// dimensions for even and odd sizes.
func TestBuildPyramid_ShapeLaw(t *testing.T) {
	cases := []struct {
		name       string
		rows, cols int
		numLevels  int
	}{
		{"Even64", 64, 64, 3},
		{"OddDimensions", 63, 47, 3},
		{"SingleLevel", 32, 48, 1},
		{"NoDecimation", 20, 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := gridFromFunc(t, tc.rows, tc.cols, func(r, c int) float64 { return texture(float64(r), float64(c)) })
			defer img.Close()

			pyramid, err := flow.BuildPyramid(img, tc.numLevels)
			require.NoError(t, err)
			defer func() {
				for i := range pyramid {
					pyramid[i].Close()
				}
			}()

			require.Len(t, pyramid, tc.numLevels+1, "pyramid must have numLevels+1 entries")
			for level := 1; level < len(pyramid); level++ {
				wantRows := (pyramid[level-1].Rows() + 1) / 2
				wantCols := (pyramid[level-1].Cols() + 1) / 2
				assert.Equal(t, wantRows, pyramid[level].Rows(), "rows at level %d", level)
				assert.Equal(t, wantCols, pyramid[level].Cols(), "cols at level %d", level)
			}
		})
	}
}

// TestBuildPyramid_LevelZeroIsInput verifies that level 0 is the unchanged
// input, not a smoothed copy.
func TestBuildPyramid_LevelZeroIsInput(t *testing.T) {
	img := gridFromFunc(t, 16, 24, func(r, c int) float64 { return float64(r*31 + c) })
	defer img.Close()

	pyramid, err := flow.BuildPyramid(img, 2)
	require.NoError(t, err)
	defer func() {
		for i := range pyramid {
			pyramid[i].Close()
		}
	}()

	for r := 0; r < img.Rows(); r++ {
		for c := 0; c < img.Cols(); c++ {
			require.Equal(t, img.GetDoubleAt(r, c), pyramid[0].GetDoubleAt(r, c),
				"level 0 pixel (%d,%d)", r, c)
		}
	}
}

// TestBuildPyramid_ConstantImage verifies that the normalized binomial filter
// preserves constant images at every level.
func TestBuildPyramid_ConstantImage(t *testing.T) {
	const value = 7.5
	img := gridFromFunc(t, 40, 40, func(r, c int) float64 { return value })
	defer img.Close()

	pyramid, err := flow.BuildPyramid(img, 3)
	require.NoError(t, err)
	defer func() {
		for i := range pyramid {
			pyramid[i].Close()
		}
	}()

	for level, m := range pyramid {
		for r := 0; r < m.Rows(); r++ {
			for c := 0; c < m.Cols(); c++ {
				require.InDelta(t, value, m.GetDoubleAt(r, c), 1e-9,
					"level %d pixel (%d,%d)", level, r, c)
			}
		}
	}
}

// TestBuildPyramid_Errors verifies the fail-fast preconditions.
func TestBuildPyramid_Errors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := flow.BuildPyramid(empty, 2)
	assert.ErrorIs(t, err, flow.ErrEmptyInput, "empty input must error")

	img := gridFromFunc(t, 8, 8, func(r, c int) float64 { return 1 })
	defer img.Close()
	_, err = flow.BuildPyramid(img, -1)
	assert.ErrorIs(t, err, flow.ErrInvalidLevels, "negative level count must error")

	bytes := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8U)
	defer bytes.Close()
	_, err = flow.BuildPyramid(bytes, 1)
	assert.ErrorIs(t, err, flow.ErrInvalidType, "non-CV_64F input must error")
}
