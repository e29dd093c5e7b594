package metrics

import (
	"math"
	"math/rand"
	"testing"

	"imagecert/config"
	"imagecert/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// texturedImage draws a deterministic gradient with a checker overlay,
// keeping samples inside [48, 208] so added noise is never clipped.
func texturedImage(width, height, channels int) *types.Image {
	img := types.NewImage(width, height, channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := img.Offset(x, y)
			for c := 0; c < channels; c++ {
				v := 48 + (x*3+y*2+c*17)%120
				if (x/4+y/4)%2 == 0 {
					v += 40
				}
				img.Pix[i+c] = uint8(v)
			}
		}
	}
	return img
}

func flatImage(width, height, channels int, value uint8) *types.Image {
	img := types.NewImage(width, height, channels)
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func withNoise(img *types.Image, amplitude int, seed int64) *types.Image {
	rng := rand.New(rand.NewSource(seed))
	out := types.NewImage(img.Width, img.Height, img.Channels)
	for i, v := range img.Pix {
		n := int(v)
		if amplitude > 0 {
			n += rng.Intn(2*amplitude+1) - amplitude
		}
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		out.Pix[i] = uint8(n)
	}
	return out
}

func allMetrics() config.MetricSet {
	set := config.Default()
	for i := range set.Metrics {
		set.Metrics[i].Enabled = true
	}
	return set
}

func TestIdenticalImages(t *testing.T) {
	ref := texturedImage(48, 40, 3)
	cand := texturedImage(48, 40, 3)

	result, err := Evaluate(allMetrics(), ref, cand)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, float64(result[config.MetricSSIM]), 1e-12)
	assert.True(t, math.IsInf(float64(result[config.MetricPSNR]), 1))
	assert.Equal(t, types.Score(0), result[config.MetricMSE])
	assert.Equal(t, types.Score(0), result[config.MetricNRMSE])
	assert.Equal(t, types.Score(0), result[config.MetricMAE])
	assert.InDelta(t, 1.0, float64(result[config.MetricUQI]), 1e-9)
	assert.InDelta(t, 1.0, float64(result[config.MetricVIF]), 1e-6)
	assert.Equal(t, types.Score(0), result[config.MetricPHash])
}

func TestNoiseDecreasesSSIMAndPSNR(t *testing.T) {
	ref := texturedImage(64, 64, 3)
	amplitudes := []int{2, 8, 20, 40}

	prevSSIM, prevPSNR := math.Inf(1), math.Inf(1)
	for _, amp := range amplitudes {
		cand := withNoise(ref, amp, 7)

		ssim, err := SSIM(ref, cand, 7)
		require.NoError(t, err)
		psnr, err := PSNR(ref, cand)
		require.NoError(t, err)

		assert.Less(t, ssim, prevSSIM, "ssim must drop at amplitude %d", amp)
		assert.Less(t, psnr, prevPSNR, "psnr must drop at amplitude %d", amp)
		prevSSIM, prevPSNR = ssim, psnr
	}
}

func TestNoiseDecreasesVIFAndUQI(t *testing.T) {
	ref := texturedImage(64, 64, 1)
	prevVIF, prevUQI := math.Inf(1), math.Inf(1)
	for _, amp := range []int{4, 16, 40} {
		cand := withNoise(ref, amp, 11)

		vif, err := VIF(ref, cand, 2)
		require.NoError(t, err)
		uqi, err := UQI(ref, cand, 8)
		require.NoError(t, err)

		assert.Less(t, vif, prevVIF)
		assert.Less(t, uqi, prevUQI)
		prevVIF, prevUQI = vif, uqi
	}
}

func TestPixelStatistics(t *testing.T) {
	black := flatImage(4, 4, 3, 0)
	white := flatImage(4, 4, 3, 255)

	mse, err := MSE(black, white)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mse, 1e-12)

	mae, err := MAE(black, white)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-12)

	psnr, err := PSNR(black, white)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, psnr, 1e-12)

	nrmse, err := NRMSE(white, black)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, nrmse, 1e-12)

	nrmse, err = NRMSE(black, white)
	require.NoError(t, err)
	assert.True(t, math.IsInf(nrmse, 1))

	nrmse, err = NRMSE(black, black)
	require.NoError(t, err)
	assert.Equal(t, 0.0, nrmse)
}

func TestPSNRKnownValue(t *testing.T) {
	ref := flatImage(10, 10, 1, 100)
	cand := flatImage(10, 10, 1, 100)
	cand.Pix[0] = 100 + 51 // one sample off by 0.2

	psnr, err := PSNR(ref, cand)
	require.NoError(t, err)
	// mse = 0.04 / 100
	assert.InDelta(t, 10*math.Log10(1/(0.04/100)), psnr, 1e-9)
}

func TestDegenerateInputs(t *testing.T) {
	flat := flatImage(32, 32, 3, 128)

	ssim, err := SSIM(flat, flat, 7)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ssim, 1e-12)

	vif, err := VIF(flat, flat, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vif), "flat reference has no information")

	uqi, err := UQI(flat, flatImage(32, 32, 3, 64), 8)
	require.NoError(t, err)
	assert.InDelta(t, 2*128.0*64.0/(128*128+64*64), uqi, 1e-12)

	tiny := flatImage(2, 2, 3, 10)
	ssim, err = SSIM(tiny, tiny, 7)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ssim))

	small := texturedImage(10, 10, 3)
	vif, err = VIF(small, small, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vif), "image smaller than the first window")
}

func TestSSIMWindowShrinksForSmallImages(t *testing.T) {
	ref := texturedImage(6, 6, 3)
	cand := withNoise(ref, 10, 3)

	ssim, err := SSIM(ref, cand, 11)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(ssim))
	assert.Less(t, ssim, 1.0)
}

func TestShapeMismatch(t *testing.T) {
	ref := texturedImage(8, 8, 3)
	cand := texturedImage(8, 9, 3)

	_, err := Evaluate(config.Default(), ref, cand)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = SSIM(ref, texturedImage(8, 8, 4), 7)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = MSE(ref, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEvaluateHonorsEnabledSet(t *testing.T) {
	set := config.MetricSet{
		Version:    config.Version,
		Metrics:    []config.MetricConfig{{Name: config.MetricSSIM, Enabled: true}, {Name: config.MetricMAE, Enabled: false}},
		SSIMWindow: 7,
	}
	img := texturedImage(16, 16, 3)
	result, err := Evaluate(set, img, img)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Contains(t, result, config.MetricSSIM)
}

func TestPerceptualDistanceGrowsWithChange(t *testing.T) {
	ref := texturedImage(64, 64, 3)
	inverted := types.NewImage(64, 64, 3)
	for i, v := range ref.Pix {
		inverted.Pix[i] = 255 - v
	}

	d, err := PerceptualDistance(ref, inverted)
	require.NoError(t, err)
	assert.Greater(t, d, 0)
}

func TestGaussianKernelIsNormalized(t *testing.T) {
	for _, size := range []int{3, 5, 9, 17} {
		k := gaussianKernel(size, float64(size)/5)
		var sum float64
		for _, v := range k {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.InDelta(t, k[0], k[size-1], 1e-15)
	}
}
