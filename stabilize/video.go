package stabilize

import "gocv.io/x/gocv"

// VideoParameters carries the container properties of an opened capture that
// the output stream must reproduce.
type VideoParameters struct {
	FourCC     string
	FPS        float64
	Width      int
	Height     int
	FrameCount int
}

// ReadParameters extracts the container parameters from an opened capture.
func ReadParameters(capture *gocv.VideoCapture) VideoParameters {
	return VideoParameters{
		FourCC:     capture.CodecString(),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
}
