package stabilize

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"gocv.io/x/gocv"

	"vidstab/flow"
	"vidstab/internal/conversion"
	"vidstab/internal/logger"
)

// Stabilizer drives the per-frame stabilization loop. It holds the only
// cross-frame state in the pipeline: the previous working frame and the
// cumulative displacement back to the first frame.
type Stabilizer struct {
	opts             Options
	log              logger.Logger
	progressCallback func(float64)
	statusCallback   func(string)
	metrics          Metrics
}

// NewStabilizer validates opts and returns a ready Stabilizer. A nil logger
// disables logging.
func NewStabilizer(opts Options, log logger.Logger) (*Stabilizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Stabilizer{opts: opts, log: log}, nil
}

// SetProgressCallback registers a callback receiving completion in [0, 1].
func (s *Stabilizer) SetProgressCallback(callback func(float64)) {
	s.progressCallback = callback
}

// SetStatusCallback registers a callback receiving status text.
func (s *Stabilizer) SetStatusCallback(callback func(string)) {
	s.statusCallback = callback
}

// Metrics returns the counters of the last Run.
func (s *Stabilizer) Metrics() Metrics {
	return s.metrics
}

// Run stabilizes the video at inputPath and writes the result to outputPath.
// The first frame passes through unchanged and anchors the drift
// accumulation; every later frame is warped by the cumulative mean field.
// The context is checked between frames.
func (s *Stabilizer) Run(ctx context.Context, inputPath, outputPath string) error {
	capture, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return fmt.Errorf("open input video %q: %w", inputPath, err)
	}
	defer capture.Close()

	params := ReadParameters(capture)
	if params.Width <= 0 || params.Height <= 0 {
		return fmt.Errorf("input video %q reports invalid dimensions %dx%d",
			inputPath, params.Width, params.Height)
	}
	workRows, workCols := workingSize(params.Height, params.Width, s.opts.NumLevels)
	if err := s.checkCrop(workRows, workCols); err != nil {
		return err
	}

	s.log.Info("input video opened", map[string]interface{}{
		"path":         inputPath,
		"fourcc":       params.FourCC,
		"fps":          params.FPS,
		"width":        params.Width,
		"height":       params.Height,
		"frame_count":  params.FrameCount,
		"working_size": fmt.Sprintf("%dx%d", workCols, workRows),
	})

	fourcc := s.opts.FourCC
	if fourcc == "" {
		fourcc = params.FourCC
		if len(fourcc) != 4 {
			fourcc = "MJPG"
		}
	}
	writer, err := gocv.VideoWriterFile(outputPath, fourcc, params.FPS,
		params.Width, params.Height, true)
	if err != nil {
		return fmt.Errorf("open output video %q: %w", outputPath, err)
	}
	defer writer.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := capture.Read(&frame); !ok || frame.Empty() {
		return fmt.Errorf("input video %q has no readable frames", inputPath)
	}
	if err := writer.Write(frame); err != nil {
		return fmt.Errorf("write first frame: %w", err)
	}

	prev, err := workingGrid(frame, workCols, workRows)
	if err != nil {
		return fmt.Errorf("prepare first frame: %w", err)
	}
	defer func() { prev.Close() }()

	driftU := gocv.NewMatWithSize(workRows, workCols, gocv.MatTypeCV64F)
	defer func() { driftU.Close() }()
	driftV := gocv.NewMatWithSize(workRows, workCols, gocv.MatTypeCV64F)
	defer func() { driftV.Close() }()

	refiner := s.newRefiner()
	border := s.opts.WindowSize / 2

	s.updateStatus("stabilizing")
	s.metrics = Metrics{}
	start := time.Now()

	for frameIndex := 1; ; frameIndex++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}

		cur, err := workingGrid(frame, workCols, workRows)
		if err != nil {
			return fmt.Errorf("prepare frame %d: %w", frameIndex, err)
		}

		u, v, err := refiner.Flow(prev, cur)
		if err != nil {
			cur.Close()
			return fmt.Errorf("flow at frame %d: %w", frameIndex, err)
		}

		// Collapse the field to its interior mean: only global camera motion
		// is compensated, per-pixel variation is treated as noise.
		meanU, err := meanInterior(u, border)
		if err == nil {
			err = fillInterior(u, border, meanU)
		}
		var meanV float64
		if err == nil {
			meanV, err = meanInterior(v, border)
		}
		if err == nil {
			err = fillInterior(v, border, meanV)
		}
		if err == nil {
			err = addField(u, driftU)
		}
		if err == nil {
			err = addField(v, driftV)
		}
		if err != nil {
			u.Close()
			v.Close()
			cur.Close()
			return fmt.Errorf("drift accumulation at frame %d: %w", frameIndex, err)
		}

		driftU.Close()
		driftV.Close()
		driftU, driftV = u, v

		warped, err := flow.Warp(cur, driftU, driftV)
		prev.Close()
		prev = cur
		if err != nil {
			return fmt.Errorf("warp at frame %d: %w", frameIndex, err)
		}

		err = s.writeFrame(writer, warped, params)
		warped.Close()
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", frameIndex, err)
		}

		s.metrics.recordDrift(math.Hypot(meanU, meanV))
		if s.progressCallback != nil && params.FrameCount > 0 {
			s.progressCallback(float64(frameIndex) / float64(params.FrameCount))
		}
	}

	s.metrics.Elapsed = time.Since(start)
	s.updateStatus("done")
	s.log.Info("stabilization complete", map[string]interface{}{
		"output":          outputPath,
		"frames":          s.metrics.FramesProcessed,
		"elapsed":         s.metrics.Elapsed.String(),
		"mean_frame_time": s.metrics.MeanFrameTime().String(),
		"mean_drift_px":   s.metrics.MeanDrift(),
	})

	return nil
}

func (s *Stabilizer) newRefiner() *flow.Refiner {
	var refiner *flow.Refiner
	if s.opts.Fast {
		refiner = flow.NewFastRefiner(s.opts.WindowSize, s.opts.MaxIter, s.opts.NumLevels)
	} else {
		refiner = flow.NewRefiner(s.opts.WindowSize, s.opts.MaxIter, s.opts.NumLevels)
	}
	refiner.SetLogger(s.log)
	return refiner
}

// writeFrame converts a warped working-resolution grid back to an 8-bit BGR
// frame at container resolution, applying the configured crop first.
func (s *Stabilizer) writeFrame(writer *gocv.VideoWriter, warped gocv.Mat, params VideoParameters) error {
	gray, err := conversion.FloatToGray(warped)
	if err != nil {
		return err
	}
	defer gray.Close()

	cropped, err := s.cropFrame(gray)
	if err != nil {
		return err
	}
	defer cropped.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(cropped, &resized, image.Pt(params.Width, params.Height), 0, 0, gocv.InterpolationLinear)

	bgr, err := conversion.GrayToBGR(resized)
	if err != nil {
		return err
	}
	defer bgr.Close()

	return writer.Write(bgr)
}

// cropFrame trims the configured margins, returning a clone the caller owns.
func (s *Stabilizer) cropFrame(m gocv.Mat) (gocv.Mat, error) {
	c := s.opts.Crop
	if c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0 {
		return m.Clone(), nil
	}
	rect := image.Rect(c.Left, c.Top, m.Cols()-c.Right, m.Rows()-c.Bottom)
	region := m.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// checkCrop rejects margins that would leave no output pixels.
func (s *Stabilizer) checkCrop(rows, cols int) error {
	c := s.opts.Crop
	if c.Left+c.Right >= cols || c.Top+c.Bottom >= rows {
		return fmt.Errorf("%w: crop margins exceed working size %dx%d", ErrInvalidOptions, cols, rows)
	}
	return nil
}

func (s *Stabilizer) updateStatus(status string) {
	if s.statusCallback != nil {
		s.statusCallback(status)
	}
}

// workingGrid converts a decoded frame to the CV_64F working grid.
func workingGrid(frame gocv.Mat, cols, rows int) (gocv.Mat, error) {
	gray, err := conversion.FrameToGray(frame)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	grid, err := conversion.GrayToFloat(gray)
	if err != nil {
		return gocv.NewMat(), err
	}
	if grid.Cols() == cols && grid.Rows() == rows {
		return grid, nil
	}
	defer grid.Close()

	resized := gocv.NewMat()
	gocv.Resize(grid, &resized, image.Pt(cols, rows), 0, 0, gocv.InterpolationLinear)
	return resized, nil
}

// workingSize rounds frame dimensions up to the nearest multiple of
// 2^numLevels so every pyramid level has an integer size.
func workingSize(rows, cols, numLevels int) (int, int) {
	factor := 1 << numLevels
	workRows := (rows + factor - 1) / factor * factor
	workCols := (cols + factor - 1) / factor * factor
	return workRows, workCols
}
