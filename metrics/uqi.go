package metrics

import (
	"math"

	"imagecert/types"
)

// UQI computes the universal quality index of Wang and Bovik over sliding
// windows of the given size. Samples stay on the integer 0-255 scale so the
// window sums are exact and the degenerate cases below are detected reliably:
//   - flat windows with equal means score 1
//   - flat windows with different means score 2*mx*my/(mx^2+my^2)
func UQI(ref, cand *types.Image, window int) (float64, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}

	win := minInt(window, minInt(ref.Width, ref.Height))
	if win < 1 {
		return math.NaN(), nil
	}

	var total float64
	for c := 0; c < ref.Channels; c++ {
		total += uqiPlane(ref.Plane(c, 1), cand.Plane(c, 1), ref.Width, ref.Height, win)
	}
	return total / float64(ref.Channels), nil
}

func uqiPlane(a, b []float64, width, height, win int) float64 {
	sums := newLocalSums(a, b, width, height)
	n := float64(win * win)

	var total float64
	count := 0
	for y := 0; y+win <= height; y++ {
		for x := 0; x+win <= width; x++ {
			sx := sums.x.window(x, y, win)
			sy := sums.y.window(x, y, win)
			sxx := sums.xx.window(x, y, win)
			syy := sums.yy.window(x, y, win)
			sxy := sums.xy.window(x, y, win)

			meanProduct := sx * sy
			meanSquares := sx*sx + sy*sy
			numerator := 4 * (n*sxy - meanProduct) * meanProduct
			variance := n*(sxx+syy) - meanSquares
			denominator := variance * meanSquares

			q := 1.0
			switch {
			case denominator != 0:
				q = numerator / denominator
			case variance == 0 && meanSquares != 0:
				q = 2 * meanProduct / meanSquares
			}
			total += q
			count++
		}
	}
	return total / float64(count)
}
