package flow

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// Step performs one dense Lucas-Kanade step between i1 and i2 and returns the
// per-pixel displacement increment (du, dv), each shaped like the inputs.
//
// Gradients are taken on i2 with the derivative kernels, the temporal
// derivative is i2-i1, and every pixel whose windowSize x windowSize
// neighborhood fits inside the image gets an independent least-squares solve
// of the brightness-constancy system. Border pixels and pixels whose local
// system is degenerate stay at zero displacement.
func Step(i1, i2 gocv.Mat, windowSize int) (gocv.Mat, gocv.Mat, error) {
	if err := checkPair(i1, i2); err != nil {
		return gocv.NewMat(), gocv.NewMat(), err
	}
	if windowSize < 1 || windowSize%2 == 0 {
		return gocv.NewMat(), gocv.NewMat(), ErrInvalidWindow
	}

	ix, iy, it := derivatives(i1, i2)
	defer ix.Close()
	defer iy.Close()
	defer it.Close()

	du := gocv.NewMatWithSize(i1.Rows(), i1.Cols(), gocv.MatTypeCV64F)
	dv := gocv.NewMatWithSize(i1.Rows(), i1.Cols(), gocv.MatTypeCV64F)

	if err := solveGrid(ix, iy, it, du, dv, windowSize, nil); err != nil {
		du.Close()
		dv.Close()
		return gocv.NewMat(), gocv.NewMat(), err
	}

	return du, dv, nil
}

// derivatives computes the spatial gradients of i2 and the temporal
// derivative i2-i1. The caller owns all three Mats.
func derivatives(i1, i2 gocv.Mat) (ix, iy, it gocv.Mat) {
	kx := kernelMat(derivFilterX)
	defer kx.Close()
	ky := kernelMat(derivFilterY)
	defer ky.Close()

	ix = gocv.NewMat()
	gocv.Filter2D(i2, &ix, gocv.MatTypeCV64F, kx, image.Pt(-1, -1), 0, gocv.BorderReflect)
	iy = gocv.NewMat()
	gocv.Filter2D(i2, &iy, gocv.MatTypeCV64F, ky, image.Pt(-1, -1), 0, gocv.BorderReflect)
	it = gocv.NewMat()
	gocv.Subtract(i2, i1, &it)
	return ix, iy, it
}

// solveGrid runs the windowed least-squares solve for every interior pixel
// accepted by keep (nil accepts all) and writes the results into du and dv.
// Rows are sharded across workers; every pixel owns a disjoint output slot
// and the gradient planes are read-only, so the goroutines share nothing
// mutable.
func solveGrid(ix, iy, it, du, dv gocv.Mat, windowSize int, keep func(r, c int) bool) error {
	rows := ix.Rows()
	cols := ix.Cols()
	margin := windowSize / 2
	if rows <= 2*margin || cols <= 2*margin {
		return nil
	}

	ixData, err := ix.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("gradient buffer access failed: %w", err)
	}
	iyData, err := iy.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("gradient buffer access failed: %w", err)
	}
	itData, err := it.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("gradient buffer access failed: %w", err)
	}
	duData, err := du.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("output buffer access failed: %w", err)
	}
	dvData, err := dv.DataPtrFloat64()
	if err != nil {
		return fmt.Errorf("output buffer access failed: %w", err)
	}

	workers := runtime.NumCPU()
	if interior := rows - 2*margin; workers > interior {
		workers = interior
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for r := margin + offset; r < rows-margin; r += workers {
				for c := margin; c < cols-margin; c++ {
					if keep != nil && !keep(r, c) {
						continue
					}
					u, v, ok := solveWindow(ixData, iyData, itData, cols, r, c, margin)
					if !ok {
						continue
					}
					duData[r*cols+c] = u
					dvData[r*cols+c] = v
				}
			}
		}(w)
	}
	wg.Wait()

	return nil
}

// solveWindow solves (u, v) = -(A^T A)^-1 A^T b for a single window, where A
// stacks the spatial gradients and b the temporal derivatives. The normal
// equations are accumulated directly instead of materializing A. A degenerate
// (singular or ill-conditioned) system yields ok=false and the pixel keeps
// zero displacement.
func solveWindow(ixData, iyData, itData []float64, cols, r, c, margin int) (u, v float64, ok bool) {
	var sxx, sxy, syy, sxt, syt float64
	for wr := r - margin; wr <= r+margin; wr++ {
		base := wr * cols
		for wc := c - margin; wc <= c+margin; wc++ {
			gx := ixData[base+wc]
			gy := iyData[base+wc]
			gt := itData[base+wc]
			sxx += gx * gx
			sxy += gx * gy
			syy += gy * gy
			sxt += gx * gt
			syt += gy * gt
		}
	}

	normal := mat.NewDense(2, 2, []float64{sxx, sxy, sxy, syy})
	var inv mat.Dense
	if err := inv.Inverse(normal); err != nil {
		return 0, 0, false
	}

	u = -(inv.At(0, 0)*sxt + inv.At(0, 1)*syt)
	v = -(inv.At(1, 0)*sxt + inv.At(1, 1)*syt)
	return u, v, true
}

// checkPair validates the shared preconditions of the estimators.
func checkPair(i1, i2 gocv.Mat) error {
	if i1.Empty() || i2.Empty() {
		return ErrEmptyInput
	}
	if i1.Type() != gocv.MatTypeCV64F || i2.Type() != gocv.MatTypeCV64F {
		return ErrInvalidType
	}
	if i1.Rows() != i2.Rows() || i1.Cols() != i2.Cols() {
		return ErrShapeMismatch
	}
	return nil
}
