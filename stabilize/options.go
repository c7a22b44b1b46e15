package stabilize

import "errors"

var (
	// ErrInvalidOptions reports an Options value that fails validation.
	ErrInvalidOptions = errors.New("stabilize: invalid options")
)

// CropMargins trims rows and columns from the warped output before it is
// resized back to container resolution, hiding the border artifacts that
// accumulate where warped content runs off the frame.
type CropMargins struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Options configures a stabilization run.
type Options struct {
	// WindowSize is the odd side length of the Lucas-Kanade solve window.
	WindowSize int
	// MaxIter is the fixed number of refinement iterations per pyramid level.
	MaxIter int
	// NumLevels is the number of pyramid decimations; frames are normalized
	// to dimensions divisible by 2^NumLevels.
	NumLevels int
	// Fast selects the corner-restricted estimator for large frames.
	Fast bool
	// Crop trims the warped output before re-encoding.
	Crop CropMargins
	// FourCC is the output codec tag handed to the container writer. Empty
	// inherits the input container's codec, falling back to MJPG when the
	// input reports an unusable tag.
	FourCC string
}

// DefaultOptions returns the parameters used throughout testing: a 5x5
// window, 5 iterations per level, 5 pyramid levels, dense estimator, no crop.
func DefaultOptions() Options {
	return Options{
		WindowSize: 5,
		MaxIter:    5,
		NumLevels:  5,
		FourCC:     "XVID",
	}
}

// Validate checks option consistency before a run starts.
func (o Options) Validate() error {
	if o.WindowSize < 1 || o.WindowSize%2 == 0 {
		return errors.Join(ErrInvalidOptions, errors.New("window size must be positive and odd"))
	}
	if o.MaxIter < 1 {
		return errors.Join(ErrInvalidOptions, errors.New("iteration count must be positive"))
	}
	if o.NumLevels < 0 {
		return errors.Join(ErrInvalidOptions, errors.New("pyramid level count must be non-negative"))
	}
	if o.Crop.Top < 0 || o.Crop.Bottom < 0 || o.Crop.Left < 0 || o.Crop.Right < 0 {
		return errors.Join(ErrInvalidOptions, errors.New("crop margins must be non-negative"))
	}
	if o.FourCC != "" && len(o.FourCC) != 4 {
		return errors.Join(ErrInvalidOptions, errors.New("fourcc must be four characters"))
	}
	return nil
}
