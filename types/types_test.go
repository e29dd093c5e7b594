package types

import (
	"encoding/json"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreJSON(t *testing.T) {
	result := MetricResult{
		"psnr":  Score(math.Inf(1)),
		"low":   Score(math.Inf(-1)),
		"vif":   Score(math.NaN()),
		"ssim":  0.875,
		"phash": 3,
	}
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"psnr":"inf","low":"-inf","vif":null,"ssim":0.875,"phash":3}`, string(data))

	var back MetricResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(float64(back["psnr"]), 1))
	assert.True(t, math.IsInf(float64(back["low"]), -1))
	assert.False(t, back["vif"].IsDefined())
	assert.Equal(t, Score(0.875), back["ssim"])
	assert.Equal(t, Score(3), back["phash"])

	var bad Score
	assert.Error(t, json.Unmarshal([]byte(`"big"`), &bad))
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "0.12346", Score(0.123456).String())
	assert.Equal(t, "inf", Score(math.Inf(1)).String())
	assert.Equal(t, "n/a", Score(math.NaN()).String())
}

func TestVerdictPassed(t *testing.T) {
	assert.True(t, Verdict{}.Passed())
	assert.True(t, Verdict{"ssim": true, "psnr": true}.Passed())
	assert.False(t, Verdict{"ssim": true, "psnr": false}.Passed())
}

func TestImageAccessors(t *testing.T) {
	img := NewImage(3, 2, 3)
	i := img.Offset(2, 1)
	assert.Equal(t, 15, i)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 51, 0

	assert.InDelta(t, 0.2, img.Float(2, 1, 1), 1e-12)
	plane := img.Plane(0, 1)
	assert.Len(t, plane, 6)
	assert.Equal(t, 255.0, plane[5])

	std := img.ToImage()
	assert.Equal(t, color.NRGBA{R: 255, G: 51, B: 0, A: 255}, std.At(2, 1))
	assert.Equal(t, color.NRGBA{A: 255}, std.At(0, 0))

	assert.True(t, img.SameShape(NewImage(3, 2, 3)))
	assert.False(t, img.SameShape(NewImage(3, 2, 4)))
}

func TestCaseResultFailed(t *testing.T) {
	assert.False(t, (&CaseResult{Name: "a"}).Failed())
	assert.True(t, (&CaseResult{Name: "a", Error: "boom"}).Failed())
}
