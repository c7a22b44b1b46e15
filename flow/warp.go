package flow

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Warp resamples img by the displacement field (u, v): every output pixel
// (r, c) takes the bilinearly interpolated value of img at
// (c + u[r,c], r + v[r,c]).
//
// The field may come from a coarser pyramid level: u and v must share a shape
// but need not match img. They are first resized to img's shape and their
// values multiplied by the corresponding dimension ratio, because pixel
// displacements scale with resolution. Query points falling outside the
// source grid keep the original pixel value, so the output is always fully
// defined.
func Warp(img, u, v gocv.Mat) (gocv.Mat, error) {
	if img.Empty() || u.Empty() || v.Empty() {
		return gocv.NewMat(), ErrEmptyInput
	}
	if img.Type() != gocv.MatTypeCV64F || u.Type() != gocv.MatTypeCV64F || v.Type() != gocv.MatTypeCV64F {
		return gocv.NewMat(), ErrInvalidType
	}
	if u.Rows() != v.Rows() || u.Cols() != v.Cols() {
		return gocv.NewMat(), ErrShapeMismatch
	}

	rows := img.Rows()
	cols := img.Cols()
	uFactor := float64(cols) / float64(u.Cols())
	vFactor := float64(rows) / float64(v.Rows())

	uFull := resizeField(u, cols, rows)
	defer uFull.Close()
	vFull := resizeField(v, cols, rows)
	defer vFull.Close()

	srcData, err := img.DataPtrFloat64()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("source buffer access failed: %w", err)
	}
	uData, err := uFull.DataPtrFloat64()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("field buffer access failed: %w", err)
	}
	vData, err := vFull.DataPtrFloat64()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("field buffer access failed: %w", err)
	}

	// Holes keep the source value, so start from a copy.
	dst := img.Clone()
	dstData, err := dst.DataPtrFloat64()
	if err != nil {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("output buffer access failed: %w", err)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			qx := float64(c) + uData[i]*uFactor
			qy := float64(r) + vData[i]*vFactor
			if qx < 0 || qx > float64(cols-1) || qy < 0 || qy > float64(rows-1) {
				continue
			}
			dstData[i] = sampleBilinear(srcData, rows, cols, qx, qy)
		}
	}

	return dst, nil
}

// resizeField resamples a field plane to cols x rows, or clones it when the
// shape already matches.
func resizeField(f gocv.Mat, cols, rows int) gocv.Mat {
	if f.Cols() == cols && f.Rows() == rows {
		return f.Clone()
	}
	resized := gocv.NewMat()
	gocv.Resize(f, &resized, image.Pt(cols, rows), 0, 0, gocv.InterpolationLinear)
	return resized
}

// sampleBilinear interpolates data at the sub-pixel location (x, y). The
// caller guarantees 0 <= x <= cols-1 and 0 <= y <= rows-1.
func sampleBilinear(data []float64, rows, cols int, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	fx := x - float64(x0)
	fy := y - float64(y0)
	if x1 > cols-1 {
		x1 = cols - 1
	}
	if y1 > rows-1 {
		y1 = rows - 1
	}

	v00 := data[y0*cols+x0]
	v01 := data[y0*cols+x1]
	v10 := data[y1*cols+x0]
	v11 := data[y1*cols+x1]

	top := v00*(1-fx) + v01*fx
	bottom := v10*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}
