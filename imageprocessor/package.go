// Package imageprocessor loads images with OpenCV, normalizes a
// reference/candidate pair to congruent 8-bit BGR matrices and renders their
// difference. Matrices returned by this package must be closed by the caller.
package imageprocessor
