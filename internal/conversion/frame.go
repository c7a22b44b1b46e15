// Package conversion translates between the BGR frames a video container
// yields and the single-channel float64 grids the flow core consumes.
package conversion

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameToGray converts a decoded container frame to single-channel 8-bit
// grayscale. Single-channel input is cloned unchanged.
func FrameToGray(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}

	if frame.Channels() == 1 {
		return frame.Clone(), nil
	}

	gray := gocv.NewMat()

	switch frame.Channels() {
	case 3:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", frame.Channels())
	}

	return gray, nil
}

// GrayToFloat converts an 8-bit grayscale Mat to the CV_64F representation
// used throughout the flow core.
func GrayToFloat(gray gocv.Mat) (gocv.Mat, error) {
	if gray.Empty() {
		return gocv.NewMat(), fmt.Errorf("input Mat is empty")
	}
	if gray.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("expected single-channel input, got %d channels", gray.Channels())
	}

	grid := gocv.NewMat()
	gray.ConvertTo(&grid, gocv.MatTypeCV64F)
	return grid, nil
}

// FloatToGray converts a CV_64F grid back to 8-bit grayscale, saturating
// values outside [0, 255].
func FloatToGray(grid gocv.Mat) (gocv.Mat, error) {
	if grid.Empty() {
		return gocv.NewMat(), fmt.Errorf("input Mat is empty")
	}
	if grid.Type() != gocv.MatTypeCV64F {
		return gocv.NewMat(), fmt.Errorf("expected CV_64F input, got type %d", grid.Type())
	}

	gray := gocv.NewMat()
	grid.ConvertTo(&gray, gocv.MatTypeCV8U)
	return gray, nil
}

// GrayToBGR expands an 8-bit grayscale Mat to three channels for re-encoding
// into a color container stream.
func GrayToBGR(gray gocv.Mat) (gocv.Mat, error) {
	if gray.Empty() {
		return gocv.NewMat(), fmt.Errorf("input Mat is empty")
	}
	if gray.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("expected single-channel input, got %d channels", gray.Channels())
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
	return bgr, nil
}
