package flow

import (
	"image"

	"gocv.io/x/gocv"
)

// BuildPyramid builds a multi-resolution representation of img with
// numLevels+1 entries. Level 0 is a clone of the input; every further level
// is the previous one convolved with the binomial low-pass (reflected
// borders, same size) and decimated by keeping every second row and column
// starting at index 0.
//
// The caller owns every Mat in the returned slice.
func BuildPyramid(img gocv.Mat, numLevels int) ([]gocv.Mat, error) {
	if img.Empty() {
		return nil, ErrEmptyInput
	}
	if img.Type() != gocv.MatTypeCV64F {
		return nil, ErrInvalidType
	}
	if numLevels < 0 {
		return nil, ErrInvalidLevels
	}

	kernel := kernelMat(pyramidFilter)
	defer kernel.Close()

	pyramid := make([]gocv.Mat, 0, numLevels+1)
	pyramid = append(pyramid, img.Clone())

	for level := 0; level < numLevels; level++ {
		blurred := gocv.NewMat()
		gocv.Filter2D(pyramid[level], &blurred, gocv.MatTypeCV64F, kernel, image.Pt(-1, -1), 0, gocv.BorderReflect)
		pyramid = append(pyramid, decimate(blurred))
		blurred.Close()
	}

	return pyramid, nil
}

// decimate keeps every second row and column of src, starting at (0, 0).
func decimate(src gocv.Mat) gocv.Mat {
	rows := (src.Rows() + 1) / 2
	cols := (src.Cols() + 1) / 2
	dst := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst.SetDoubleAt(r, c, src.GetDoubleAt(2*r, 2*c))
		}
	}
	return dst
}

// closePyramid releases every level of a pyramid.
func closePyramid(pyramid []gocv.Mat) {
	for i := range pyramid {
		pyramid[i].Close()
	}
}
