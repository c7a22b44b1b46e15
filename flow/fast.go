package flow

import (
	"fmt"

	"gocv.io/x/gocv"
)

const (
	// smallImageSide is the dimension below which sparsification is not worth
	// the corner detection overhead and FastStep delegates to Step.
	smallImageSide = 200

	harrisBlockSize = 5
	harrisAperture  = 5
	harrisK         = 0.05

	// cornerKeepRatio discards responses below this fraction of the maximum.
	cornerKeepRatio = 0.03
)

// FastStep is the corner-restricted variant of Step. It shares the contract
// and the per-pixel solve of Step but, for images with at least one dimension
// of smallImageSide or more, only solves at pixels whose Harris corner
// response survives thresholding. Every other pixel keeps zero displacement.
func FastStep(i1, i2 gocv.Mat, windowSize int) (gocv.Mat, gocv.Mat, error) {
	if err := checkPair(i1, i2); err != nil {
		return gocv.NewMat(), gocv.NewMat(), err
	}
	if windowSize < 1 || windowSize%2 == 0 {
		return gocv.NewMat(), gocv.NewMat(), ErrInvalidWindow
	}

	if i1.Rows() < smallImageSide && i1.Cols() < smallImageSide {
		return Step(i1, i2, windowSize)
	}

	response := cornerResponse(i2)
	defer response.Close()

	respData, err := response.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("corner response access failed: %w", err)
	}
	_, maxResp, _, _ := gocv.MinMaxLoc(response)
	threshold := float64(maxResp) * cornerKeepRatio

	ix, iy, it := derivatives(i1, i2)
	defer ix.Close()
	defer iy.Close()
	defer it.Close()

	du := gocv.NewMatWithSize(i1.Rows(), i1.Cols(), gocv.MatTypeCV64F)
	dv := gocv.NewMatWithSize(i1.Rows(), i1.Cols(), gocv.MatTypeCV64F)

	cols := i1.Cols()
	keep := func(r, c int) bool {
		v := float64(respData[r*cols+c])
		return v != 0 && v >= threshold
	}

	if err := solveGrid(ix, iy, it, du, dv, windowSize, keep); err != nil {
		du.Close()
		dv.Close()
		return gocv.NewMat(), gocv.NewMat(), err
	}

	return du, dv, nil
}

// cornerResponse computes the Harris second-moment corner response of img.
// Harris needs a CV_32F input, so the grid is narrowed for detection only.
func cornerResponse(img gocv.Mat) gocv.Mat {
	img32 := gocv.NewMat()
	defer img32.Close()
	img.ConvertTo(&img32, gocv.MatTypeCV32F)

	response := gocv.NewMat()
	gocv.CornerHarris(img32, &response, harrisBlockSize, harrisAperture, harrisK)
	return response
}
