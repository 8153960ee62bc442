// Package binning summarizes raw observations as horizontal line segments, one
// per non-empty bin, for overlaying on a fitted curve.
//
// The domain [xMin, xMax] is split into equal-width bins, either a fixed count
// or a fixed width. Bins are half-open [lo, hi) except the last, which is closed
// at xMax. Each non-empty bin yields one segment at the height of its summary
// value, labelled by comparing that value with a threshold.
package binning
