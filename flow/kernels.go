package flow

import "gocv.io/x/gocv"

// pyramidFilter is the 5x5 separable binomial low-pass used before each
// decimation, 1/256 * [1 4 6 4 1] x [1 4 6 4 1].
var pyramidFilter = [][]float64{
	{1.0 / 256, 4.0 / 256, 6.0 / 256, 4.0 / 256, 1.0 / 256},
	{4.0 / 256, 16.0 / 256, 24.0 / 256, 16.0 / 256, 4.0 / 256},
	{6.0 / 256, 24.0 / 256, 36.0 / 256, 24.0 / 256, 6.0 / 256},
	{4.0 / 256, 16.0 / 256, 24.0 / 256, 16.0 / 256, 4.0 / 256},
	{1.0 / 256, 4.0 / 256, 6.0 / 256, 4.0 / 256, 1.0 / 256},
}

// derivFilterX and derivFilterY are Sobel-style derivative kernels stored in
// correlation orientation (Filter2D correlates; the convolution form of these
// kernels is the 180-degree rotation).
var derivFilterX = [][]float64{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var derivFilterY = [][]float64{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// kernelMat builds a CV_64F Mat from kernel coefficients. The caller owns the
// returned Mat.
func kernelMat(values [][]float64) gocv.Mat {
	rows := len(values)
	cols := len(values[0])
	k := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			k.SetDoubleAt(r, c, values[r][c])
		}
	}
	return k
}
