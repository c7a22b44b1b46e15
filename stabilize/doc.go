// Package stabilize cancels global camera motion in a video using the
// pyramidal Lucas-Kanade flow core.
//
// The Stabilizer decodes frames to grayscale, estimates per-frame flow
// against the previous frame, collapses the field to its spatial mean over
// the valid interior (only global camera motion is compensated), accumulates
// drift back to the first frame, and
// re-encodes the warped frames at the original resolution. It is the only
// stateful component in the pipeline: everything in package flow is a pure
// function of its inputs.
package stabilize
