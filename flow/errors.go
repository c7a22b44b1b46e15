package flow

import "errors"

var (
	// ErrEmptyInput reports an empty input Mat.
	ErrEmptyInput = errors.New("flow: empty input image")

	// ErrInvalidType reports an input that is not single-channel CV_64F.
	ErrInvalidType = errors.New("flow: input must be single-channel CV_64F")

	// ErrShapeMismatch reports image or field pairs whose dimensions differ.
	ErrShapeMismatch = errors.New("flow: input shapes do not match")

	// ErrInvalidWindow reports a window size that is not positive and odd.
	ErrInvalidWindow = errors.New("flow: window size must be positive and odd")

	// ErrInvalidLevels reports a negative pyramid level count.
	ErrInvalidLevels = errors.New("flow: number of pyramid levels must be non-negative")

	// ErrInvalidIterations reports a non-positive per-level iteration count.
	ErrInvalidIterations = errors.New("flow: iteration count must be positive")
)
