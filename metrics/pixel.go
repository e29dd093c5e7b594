package metrics

import (
	"math"

	"imagecert/types"
)

// MSE is the mean squared error of samples normalized to [0,1]
func MSE(ref, cand *types.Image) (float64, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}
	var sum float64
	for i := range ref.Pix {
		d := (float64(ref.Pix[i]) - float64(cand.Pix[i])) / 255.0
		sum += d * d
	}
	return sum / float64(len(ref.Pix)), nil
}

// MAE is the mean absolute error of samples normalized to [0,1]
func MAE(ref, cand *types.Image) (float64, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}
	var sum float64
	for i := range ref.Pix {
		sum += math.Abs(float64(ref.Pix[i])-float64(cand.Pix[i])) / 255.0
	}
	return sum / float64(len(ref.Pix)), nil
}

// PSNR is the peak signal to noise ratio in dB for a data range of 1.
// Identical images have no noise and yield +Inf.
func PSNR(ref, cand *types.Image) (float64, error) {
	mse, err := MSE(ref, cand)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(1/mse), nil
}

// NRMSE normalizes the root mean squared error by the root mean square of the
// reference. An all-black reference yields 0 when the candidate matches and
// +Inf otherwise.
func NRMSE(ref, cand *types.Image) (float64, error) {
	mse, err := MSE(ref, cand)
	if err != nil {
		return 0, err
	}
	var energy float64
	for _, v := range ref.Pix {
		f := float64(v) / 255.0
		energy += f * f
	}
	energy /= float64(len(ref.Pix))

	if energy == 0 {
		if mse == 0 {
			return 0, nil
		}
		return math.Inf(1), nil
	}
	return math.Sqrt(mse) / math.Sqrt(energy), nil
}
