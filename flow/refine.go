package flow

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"vidstab/internal/logger"
)

// stepFunc is the per-level estimator signature shared by Step and FastStep.
type stepFunc func(i1, i2 gocv.Mat, windowSize int) (gocv.Mat, gocv.Mat, error)

// Refiner computes a full-resolution displacement field between two images by
// coarse-to-fine Lucas-Kanade refinement over an image pyramid.
type Refiner struct {
	windowSize int
	maxIter    int
	numLevels  int
	step       stepFunc
	log        logger.Logger
}

// NewRefiner returns a Refiner backed by the dense estimator.
func NewRefiner(windowSize, maxIter, numLevels int) *Refiner {
	return &Refiner{
		windowSize: windowSize,
		maxIter:    maxIter,
		numLevels:  numLevels,
		step:       Step,
		log:        logger.NewNop(),
	}
}

// NewFastRefiner returns a Refiner backed by the corner-restricted estimator.
func NewFastRefiner(windowSize, maxIter, numLevels int) *Refiner {
	r := NewRefiner(windowSize, maxIter, numLevels)
	r.step = FastStep
	return r
}

// SetLogger attaches a logger for per-level debug output.
func (r *Refiner) SetLogger(log logger.Logger) {
	if log != nil {
		r.log = log
	}
}

// Flow estimates the displacement field from i1 to i2.
//
// Both inputs are resized to dimensions that are exact multiples of
// 2^numLevels so decimation and upsampling round-trip cleanly, then a pyramid
// of each is built. The field starts as zeros at the coarsest level; at every
// level the target image is warped by the accumulated field, the estimator
// produces a correction maxIter times (re-warping after each), and on level
// transitions the field is resized to the finer level and its values doubled.
// The returned field matches the (possibly resized) working resolution.
func (r *Refiner) Flow(i1, i2 gocv.Mat) (gocv.Mat, gocv.Mat, error) {
	if err := checkPair(i1, i2); err != nil {
		return gocv.NewMat(), gocv.NewMat(), err
	}
	if r.windowSize < 1 || r.windowSize%2 == 0 {
		return gocv.NewMat(), gocv.NewMat(), ErrInvalidWindow
	}
	if r.maxIter < 1 {
		return gocv.NewMat(), gocv.NewMat(), ErrInvalidIterations
	}
	if r.numLevels < 0 {
		return gocv.NewMat(), gocv.NewMat(), ErrInvalidLevels
	}

	workRows, workCols := workingSize(i1.Rows(), i1.Cols(), r.numLevels)
	a := resizeTo(i1, workCols, workRows)
	defer a.Close()
	b := resizeTo(i2, workCols, workRows)
	defer b.Close()

	pyr1, err := BuildPyramid(a, r.numLevels)
	if err != nil {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("reference pyramid: %w", err)
	}
	defer closePyramid(pyr1)
	pyr2, err := BuildPyramid(b, r.numLevels)
	if err != nil {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("target pyramid: %w", err)
	}
	defer closePyramid(pyr2)

	coarsest := pyr2[len(pyr2)-1]
	u := gocv.NewMatWithSize(coarsest.Rows(), coarsest.Cols(), gocv.MatTypeCV64F)
	v := gocv.NewMatWithSize(coarsest.Rows(), coarsest.Cols(), gocv.MatTypeCV64F)
	fail := func(err error) (gocv.Mat, gocv.Mat, error) {
		u.Close()
		v.Close()
		return gocv.NewMat(), gocv.NewMat(), err
	}

	for level := r.numLevels; level >= 0; level-- {
		ref := pyr1[level]
		tgt := pyr2[level]

		warped, err := Warp(tgt, u, v)
		if err != nil {
			return fail(fmt.Errorf("warp at level %d: %w", level, err))
		}

		for iter := 0; iter < r.maxIter; iter++ {
			du, dv, err := r.step(ref, warped, r.windowSize)
			if err != nil {
				warped.Close()
				return fail(fmt.Errorf("step at level %d: %w", level, err))
			}
			addErr := addInPlace(u, du)
			if addErr == nil {
				addErr = addInPlace(v, dv)
			}
			du.Close()
			dv.Close()
			warped.Close()
			if addErr != nil {
				return fail(fmt.Errorf("field accumulation at level %d: %w", level, addErr))
			}

			warped, err = Warp(tgt, u, v)
			if err != nil {
				return fail(fmt.Errorf("warp at level %d: %w", level, err))
			}
		}
		warped.Close()

		r.log.Debug("pyramid level refined", map[string]interface{}{
			"level": level,
			"rows":  ref.Rows(),
			"cols":  ref.Cols(),
		})

		if level > 0 {
			next := pyr1[level-1]
			nu, err := upsampleField(u, next.Cols(), next.Rows())
			if err != nil {
				return fail(err)
			}
			nv, err := upsampleField(v, next.Cols(), next.Rows())
			if err != nil {
				nu.Close()
				return fail(err)
			}
			u.Close()
			v.Close()
			u, v = nu, nv
		}
	}

	return u, v, nil
}

// Refine computes the dense pyramidal flow between i1 and i2. The caller owns
// the returned field Mats.
func Refine(i1, i2 gocv.Mat, windowSize, maxIter, numLevels int) (gocv.Mat, gocv.Mat, error) {
	return NewRefiner(windowSize, maxIter, numLevels).Flow(i1, i2)
}

// RefineFast is Refine with the corner-restricted estimator.
func RefineFast(i1, i2 gocv.Mat, windowSize, maxIter, numLevels int) (gocv.Mat, gocv.Mat, error) {
	return NewFastRefiner(windowSize, maxIter, numLevels).Flow(i1, i2)
}

// workingSize rounds dimensions up to the nearest multiple of 2^numLevels.
func workingSize(rows, cols, numLevels int) (int, int) {
	factor := 1 << numLevels
	workRows := (rows + factor - 1) / factor * factor
	workCols := (cols + factor - 1) / factor * factor
	return workRows, workCols
}

// resizeTo resamples img to cols x rows, or clones it when the shape already
// matches.
func resizeTo(img gocv.Mat, cols, rows int) gocv.Mat {
	if img.Cols() == cols && img.Rows() == rows {
		return img.Clone()
	}
	resized := gocv.NewMat()
	gocv.Resize(img, &resized, image.Pt(cols, rows), 0, 0, gocv.InterpolationLinear)
	return resized
}

// upsampleField resizes a field plane to the next pyramid level and doubles
// its values: displacements are measured in pixels, so halving the spatial
// scale doubles the same physical motion.
func upsampleField(f gocv.Mat, cols, rows int) (gocv.Mat, error) {
	resized := resizeField(f, cols, rows)
	data, err := resized.DataPtrFloat64()
	if err != nil {
		resized.Close()
		return gocv.NewMat(), fmt.Errorf("field buffer access failed: %w", err)
	}
	for i := range data {
		data[i] *= 2
	}
	return resized, nil
}

// addInPlace accumulates src into dst elementwise.
func addInPlace(dst, src gocv.Mat) error {
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
