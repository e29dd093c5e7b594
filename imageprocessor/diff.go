package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Difference holds the visual artifacts derived from a normalized pair
type Difference struct {
	// Diff is the per-channel absolute difference
	Diff gocv.Mat
	// Mask is 255 on every channel whose difference exceeds the threshold, 0 elsewhere
	Mask gocv.Mat
}

// Close releases both matrices
func (d *Difference) Close() {
	d.Diff.Close()
	d.Mask.Close()
}

// RenderDifference computes the absolute difference of a congruent pair and
// masks every channel whose difference exceeds fraction of full scale.
func RenderDifference(ref, cand gocv.Mat, fraction float64) (*Difference, error) {
	if !sameShape(ref, cand) {
		return nil, fmt.Errorf("%w: cannot diff %dx%d against %dx%d", ErrShapeMismatch,
			ref.Cols(), ref.Rows(), cand.Cols(), cand.Rows())
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, fmt.Errorf("difference threshold must be in (0,1), got %g", fraction)
	}

	diff := gocv.NewMat()
	gocv.AbsDiff(ref, cand, &diff)

	mask := gocv.NewMat()
	gocv.Threshold(diff, &mask, float32(fraction*255), 255, gocv.ThresholdBinary)

	return &Difference{Diff: diff, Mask: mask}, nil
}

// ChangedPixels counts pixels with at least one masked channel
func (d *Difference) ChangedPixels() int {
	channels := d.Mask.Channels()
	if channels == 0 {
		return 0
	}
	data := d.Mask.ToBytes()

	count := 0
	for i := 0; i+channels <= len(data); i += channels {
		for c := 0; c < channels; c++ {
			if data[i+c] != 0 {
				count++
				break
			}
		}
	}
	return count
}
