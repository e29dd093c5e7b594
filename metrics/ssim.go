package metrics

import (
	"math"

	"imagecert/types"
)

const (
	ssimK1 = 0.01
	ssimK2 = 0.03
)

// SSIM computes the mean structural similarity over every full window of the
// given odd size, channel by channel, and averages the channels. Samples are
// normalized to [0,1]. The window shrinks to fit images smaller than it;
// images narrower than 3 pixels have no defined SSIM and yield NaN.
func SSIM(ref, cand *types.Image, window int) (float64, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}

	win := minInt(window, largestOddAtMost(minInt(ref.Width, ref.Height)))
	if win < 3 {
		return math.NaN(), nil
	}

	var total float64
	for c := 0; c < ref.Channels; c++ {
		total += ssimPlane(ref.Plane(c, 1/255.0), cand.Plane(c, 1/255.0), ref.Width, ref.Height, win)
	}
	return total / float64(ref.Channels), nil
}

func ssimPlane(a, b []float64, width, height, win int) float64 {
	sums := newLocalSums(a, b, width, height)

	c1 := ssimK1 * ssimK1
	c2 := ssimK2 * ssimK2
	n := float64(win * win)
	covNorm := n / (n - 1)

	var total float64
	count := 0
	for y := 0; y+win <= height; y++ {
		for x := 0; x+win <= width; x++ {
			ux := sums.x.window(x, y, win) / n
			uy := sums.y.window(x, y, win) / n
			vx := covNorm * (sums.xx.window(x, y, win)/n - ux*ux)
			vy := covNorm * (sums.yy.window(x, y, win)/n - uy*uy)
			vxy := covNorm * (sums.xy.window(x, y, win)/n - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return total / float64(count)
}
