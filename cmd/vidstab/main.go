package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog"

	"vidstab/internal/logger"
	"vidstab/stabilize"
)

const appVersion = "1.0.0"

func main() {
	var (
		inputPath  = flag.String("in", "", "input video path")
		outputPath = flag.String("out", "", "output video path")
		windowSize = flag.Int("window", 5, "Lucas-Kanade window size (odd)")
		maxIter    = flag.Int("iterations", 5, "refinement iterations per pyramid level")
		numLevels  = flag.Int("levels", 5, "pyramid level count")
		fast       = flag.Bool("fast", false, "use the corner-restricted estimator")
		fourcc     = flag.String("fourcc", "", "output codec fourcc (empty inherits the input codec)")
		cropTop    = flag.Int("crop-top", 0, "rows trimmed from the top of the output")
		cropBottom = flag.Int("crop-bottom", 0, "rows trimmed from the bottom of the output")
		cropLeft   = flag.Int("crop-left", 0, "columns trimmed from the left of the output")
		cropRight  = flag.Int("crop-right", 0, "columns trimmed from the right of the output")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: vidstab -in <input video> -out <output video> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	configureRuntime()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)

	log.Info("vidstab starting", map[string]interface{}{
		"version":    appVersion,
		"go_version": runtime.Version(),
		"num_cpu":    runtime.NumCPU(),
		"input":      *inputPath,
		"output":     *outputPath,
	})

	opts := stabilize.DefaultOptions()
	opts.WindowSize = *windowSize
	opts.MaxIter = *maxIter
	opts.NumLevels = *numLevels
	opts.Fast = *fast
	opts.FourCC = *fourcc
	opts.Crop = stabilize.CropMargins{
		Top:    *cropTop,
		Bottom: *cropBottom,
		Left:   *cropLeft,
		Right:  *cropRight,
	}

	stabilizer, err := stabilize.NewStabilizer(opts, log)
	if err != nil {
		log.Error("invalid configuration", err, nil)
		os.Exit(2)
	}

	lastDecile := -1
	stabilizer.SetProgressCallback(func(progress float64) {
		decile := int(progress * 10)
		if decile > lastDecile {
			lastDecile = decile
			log.Info("progress", map[string]interface{}{
				"percent": fmt.Sprintf("%.0f", progress*100),
			})
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := stabilizer.Run(ctx, *inputPath, *outputPath); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warning("stabilization interrupted", nil)
			os.Exit(130)
		}
		log.Error("stabilization failed", err, nil)
		os.Exit(1)
	}
}

// configureRuntime tunes the runtime for large-frame numeric workloads.
func configureRuntime() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	// Frames and pyramids are large short-lived allocations; relax the GC.
	debug.SetGCPercent(200)
}
