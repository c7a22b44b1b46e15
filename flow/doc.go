// Package flow implements pyramidal Lucas-Kanade optical flow between pairs
// of single-channel CV_64F images.
//
// The building blocks mirror the classic coarse-to-fine pipeline: BuildPyramid
// produces a blur+decimate image pyramid, Step (and its corner-restricted
// variant FastStep) solves the per-pixel windowed least-squares system, Warp
// resamples an image by a displacement field, and Refiner ties them together
// across pyramid levels with iterative refinement per level.
//
// Displacement convention: a field (u, v) warps an image by sampling it at
// (col + u, row + v). For a scene that moved right by d pixels between two
// frames, the accumulated u converges to +d, so that warping the second frame
// by the accumulated field aligns it with the first.
//
// All functions return freshly allocated Mats; the caller is responsible for
// closing them. Inputs are never modified.
package flow
