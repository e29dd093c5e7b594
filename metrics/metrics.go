// Package metrics computes full-reference image quality metrics on congruent
// 8-bit images. Every function is pure and requires both inputs to share
// width, height and channel count.
package metrics

import (
	"errors"
	"fmt"

	"imagecert/config"
	"imagecert/types"
)

// ErrShapeMismatch is returned when the two images are not congruent
var ErrShapeMismatch = errors.New("image shapes differ")

func checkShape(ref, cand *types.Image) error {
	if ref == nil || cand == nil {
		return fmt.Errorf("%w: missing image", ErrShapeMismatch)
	}
	if !ref.SameShape(cand) {
		return fmt.Errorf("%w: reference %dx%dx%d, candidate %dx%dx%d", ErrShapeMismatch,
			ref.Width, ref.Height, ref.Channels, cand.Width, cand.Height, cand.Channels)
	}
	if ref.Width == 0 || ref.Height == 0 || ref.Channels == 0 {
		return fmt.Errorf("%w: empty image", ErrShapeMismatch)
	}
	return nil
}

// Evaluate computes every metric enabled in the set
func Evaluate(set config.MetricSet, ref, cand *types.Image) (types.MetricResult, error) {
	if err := checkShape(ref, cand); err != nil {
		return nil, err
	}

	result := make(types.MetricResult)
	for _, name := range set.Enabled() {
		var (
			value float64
			err   error
		)
		switch name {
		case config.MetricSSIM:
			value, err = SSIM(ref, cand, set.SSIMWindow)
		case config.MetricPSNR:
			value, err = PSNR(ref, cand)
		case config.MetricMSE:
			value, err = MSE(ref, cand)
		case config.MetricNRMSE:
			value, err = NRMSE(ref, cand)
		case config.MetricMAE:
			value, err = MAE(ref, cand)
		case config.MetricVIF:
			value, err = VIF(ref, cand, set.VIFNoise)
		case config.MetricUQI:
			value, err = UQI(ref, cand, set.UQIWindow)
		case config.MetricPHash:
			var distance int
			distance, err = PerceptualDistance(ref, cand)
			value = float64(distance)
		default:
			err = fmt.Errorf("unsupported metric %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		result[name] = types.Score(value)
	}
	return result, nil
}
