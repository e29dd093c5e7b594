package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"imagecert/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyThresholds(t *testing.T) {
	set := MetricSet{
		Version: Version,
		Metrics: []MetricConfig{
			{Name: MetricSSIM, Enabled: true, Threshold: &Threshold{Value: 0.90, Comparison: Greater}},
			{Name: MetricPSNR, Enabled: true, Threshold: &Threshold{Value: 30.0, Comparison: Greater}},
			{Name: MetricVIF, Enabled: true},
		},
	}

	tests := []struct {
		name   string
		result types.MetricResult
		want   types.Verdict
	}{
		{
			name:   "both pass",
			result: types.MetricResult{MetricSSIM: 0.99, MetricPSNR: 40.0, MetricVIF: 0.7},
			want:   types.Verdict{MetricSSIM: true, MetricPSNR: true},
		},
		{
			name:   "low ssim",
			result: types.MetricResult{MetricSSIM: 0.5, MetricPSNR: 40.0},
			want:   types.Verdict{MetricSSIM: false, MetricPSNR: true},
		},
		{
			name:   "identical images",
			result: types.MetricResult{MetricSSIM: 1.0, MetricPSNR: types.Score(math.Inf(1))},
			want:   types.Verdict{MetricSSIM: true, MetricPSNR: true},
		},
		{
			name:   "undefined never passes",
			result: types.MetricResult{MetricSSIM: types.Score(math.NaN()), MetricPSNR: 31},
			want:   types.Verdict{MetricSSIM: false, MetricPSNR: true},
		},
		{
			name:   "missing metric is not judged",
			result: types.MetricResult{MetricSSIM: 0.95},
			want:   types.Verdict{MetricSSIM: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Classify(tt.result))
		})
	}
}

func TestThresholdComparisons(t *testing.T) {
	assert.True(t, Threshold{Value: 1, Comparison: GreaterEqual}.Passes(1))
	assert.False(t, Threshold{Value: 1, Comparison: Greater}.Passes(1))
	assert.True(t, Threshold{Value: 0.01, Comparison: Less}.Passes(0.001))
	assert.True(t, Threshold{Value: 0.01, Comparison: LessEqual}.Passes(0.01))
	assert.False(t, Threshold{Value: 0.01, Comparison: "=="}.Passes(0.01))
}

func TestDisabledMetricIsNotJudged(t *testing.T) {
	set := Default()
	for i := range set.Metrics {
		if set.Metrics[i].Name == MetricPSNR {
			set.Metrics[i].Enabled = false
		}
	}
	verdict := set.Classify(types.MetricResult{MetricSSIM: 0.95, MetricPSNR: 10})
	assert.Equal(t, types.Verdict{MetricSSIM: true}, verdict)
	assert.NotContains(t, set.Enabled(), MetricPSNR)
	assert.NotContains(t, set.Thresholds(), MetricPSNR)
}

func TestDefaultIsValid(t *testing.T) {
	set := Default()
	require.NoError(t, set.Validate())
	assert.Equal(t, []string{"ssim", "psnr", "mse", "nrmse", "mae", "vif", "uqi"}, set.Enabled())
	assert.True(t, set.IsEnabled(MetricSSIM))
	assert.False(t, set.IsEnabled(MetricPHash))
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
version: 1
metrics:
  - name: ssim
    enabled: true
    threshold:
      value: 0.85
      comparison: ">="
  - name: psnr
    enabled: true
    threshold:
      value: 20
      comparison: ">"
  - name: phash
    enabled: true
    threshold:
      value: 10
      comparison: "<="
ssim_window: 11
`)
	set, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ssim", "psnr", "phash"}, set.Enabled())
	assert.Equal(t, 11, set.SSIMWindow)
	assert.Equal(t, 8, set.UQIWindow)
	assert.Equal(t, 0.05, set.DiffFraction)
	assert.Equal(t, types.Threshold{Value: 0.85, Comparison: ">="}, set.Thresholds()[MetricSSIM])
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"version":    "version: 2\n",
		"unknown":    "version: 1\nmetrics:\n  - name: lpips\n    enabled: true\n",
		"duplicate":  "version: 1\nmetrics:\n  - name: ssim\n    enabled: true\n  - name: ssim\n    enabled: false\n",
		"comparison": "version: 1\nmetrics:\n  - name: ssim\n    enabled: true\n    threshold: {value: 1, comparison: \"~\"}\n",
		"window":     "version: 1\nssim_window: 8\n",
		"fraction":   "version: 1\ndiff_fraction: 1.5\n",
		"syntax":     "version: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadAndMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), set)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
