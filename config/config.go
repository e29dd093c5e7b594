package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"imagecert/types"

	"gopkg.in/yaml.v3"
)

// Version is the only metric configuration version understood
const Version = 1

// Metric names
const (
	MetricSSIM  = "ssim"
	MetricPSNR  = "psnr"
	MetricMSE   = "mse"
	MetricNRMSE = "nrmse"
	MetricMAE   = "mae"
	MetricVIF   = "vif"
	MetricUQI   = "uqi"
	MetricPHash = "phash"
)

// KnownMetrics lists every metric the evaluator can compute, in default display order
var KnownMetrics = []string{
	MetricSSIM, MetricPSNR, MetricMSE, MetricNRMSE, MetricMAE, MetricVIF, MetricUQI, MetricPHash,
}

// Comparison operators accepted in thresholds
const (
	Greater      = ">"
	GreaterEqual = ">="
	Less         = "<"
	LessEqual    = "<="
)

var ErrInvalidConfig = errors.New("invalid metric configuration")

// Threshold is a pass/fail rule on one metric
type Threshold struct {
	Value      float64 `yaml:"value"`
	Comparison string  `yaml:"comparison"`
}

// Passes applies the rule. Undefined scores never pass.
func (t Threshold) Passes(score types.Score) bool {
	v := float64(score)
	if math.IsNaN(v) {
		return false
	}
	switch t.Comparison {
	case Greater:
		return v > t.Value
	case GreaterEqual:
		return v >= t.Value
	case Less:
		return v < t.Value
	case LessEqual:
		return v <= t.Value
	}
	return false
}

// MetricConfig toggles one metric and optionally attaches a threshold
type MetricConfig struct {
	Name      string     `yaml:"name"`
	Enabled   bool       `yaml:"enabled"`
	Threshold *Threshold `yaml:"threshold,omitempty"`
}

// MetricSet is the versioned evaluation configuration
type MetricSet struct {
	Version int            `yaml:"version"`
	Metrics []MetricConfig `yaml:"metrics"`

	// SSIMWindow is the side of the uniform SSIM window (odd)
	SSIMWindow int `yaml:"ssim_window"`
	// UQIWindow is the side of the UQI sliding window
	UQIWindow int `yaml:"uqi_window"`
	// VIFNoise is the visual noise variance on the 0-255 scale
	VIFNoise float64 `yaml:"vif_noise"`
	// DiffFraction is the fraction of full scale a channel difference must exceed to be masked
	DiffFraction float64 `yaml:"diff_fraction"`
}

// Default returns the built-in configuration. The SSIM and PSNR cutoffs are
// provisional and expected to be tuned per pipeline.
func Default() MetricSet {
	return MetricSet{
		Version: Version,
		Metrics: []MetricConfig{
			{Name: MetricSSIM, Enabled: true, Threshold: &Threshold{Value: 0.90, Comparison: Greater}},
			{Name: MetricPSNR, Enabled: true, Threshold: &Threshold{Value: 30.0, Comparison: Greater}},
			{Name: MetricMSE, Enabled: true},
			{Name: MetricNRMSE, Enabled: true},
			{Name: MetricMAE, Enabled: true},
			{Name: MetricVIF, Enabled: true},
			{Name: MetricUQI, Enabled: true},
			{Name: MetricPHash, Enabled: false},
		},
		SSIMWindow:   7,
		UQIWindow:    8,
		VIFNoise:     2.0,
		DiffFraction: 0.05,
	}
}

// Load reads a YAML metric configuration. Omitted tuning parameters fall back to defaults.
func Load(path string) (MetricSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MetricSet{}, fmt.Errorf("cannot read metric config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML metric configuration
func Parse(data []byte) (MetricSet, error) {
	defaults := Default()
	set := MetricSet{}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return MetricSet{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if set.SSIMWindow == 0 {
		set.SSIMWindow = defaults.SSIMWindow
	}
	if set.UQIWindow == 0 {
		set.UQIWindow = defaults.UQIWindow
	}
	if set.VIFNoise == 0 {
		set.VIFNoise = defaults.VIFNoise
	}
	if set.DiffFraction == 0 {
		set.DiffFraction = defaults.DiffFraction
	}
	if len(set.Metrics) == 0 {
		set.Metrics = defaults.Metrics
	}

	if err := set.Validate(); err != nil {
		return MetricSet{}, err
	}
	return set, nil
}

// Validate checks version, metric names, comparisons and tuning ranges
func (s MetricSet) Validate() error {
	if s.Version != Version {
		return fmt.Errorf("%w: unsupported version %d (want %d)", ErrInvalidConfig, s.Version, Version)
	}

	seen := make(map[string]bool, len(s.Metrics))
	for _, m := range s.Metrics {
		if !isKnown(m.Name) {
			return fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: metric %q listed twice", ErrInvalidConfig, m.Name)
		}
		seen[m.Name] = true

		if m.Threshold != nil {
			switch m.Threshold.Comparison {
			case Greater, GreaterEqual, Less, LessEqual:
			default:
				return fmt.Errorf("%w: metric %q has invalid comparison %q", ErrInvalidConfig, m.Name, m.Threshold.Comparison)
			}
		}
	}

	if s.SSIMWindow < 3 || s.SSIMWindow%2 == 0 {
		return fmt.Errorf("%w: ssim_window must be an odd number >= 3, got %d", ErrInvalidConfig, s.SSIMWindow)
	}
	if s.UQIWindow < 2 {
		return fmt.Errorf("%w: uqi_window must be >= 2, got %d", ErrInvalidConfig, s.UQIWindow)
	}
	if s.VIFNoise <= 0 {
		return fmt.Errorf("%w: vif_noise must be positive", ErrInvalidConfig)
	}
	if s.DiffFraction <= 0 || s.DiffFraction >= 1 {
		return fmt.Errorf("%w: diff_fraction must be in (0,1), got %g", ErrInvalidConfig, s.DiffFraction)
	}
	return nil
}

// Enabled returns the enabled metric names in configured order
func (s MetricSet) Enabled() []string {
	names := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		if m.Enabled {
			names = append(names, m.Name)
		}
	}
	return names
}

// IsEnabled reports whether the named metric should be computed
func (s MetricSet) IsEnabled(name string) bool {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m.Enabled
		}
	}
	return false
}

// Thresholds returns the rules of enabled metrics keyed by name
func (s MetricSet) Thresholds() map[string]types.Threshold {
	out := make(map[string]types.Threshold)
	for _, m := range s.Metrics {
		if m.Enabled && m.Threshold != nil {
			out[m.Name] = types.Threshold{Value: m.Threshold.Value, Comparison: m.Threshold.Comparison}
		}
	}
	return out
}

// Classify judges the thresholded metrics of a result. Metrics without a
// threshold, or missing from the result, are not part of the verdict.
func (s MetricSet) Classify(result types.MetricResult) types.Verdict {
	verdict := make(types.Verdict)
	for _, m := range s.Metrics {
		if !m.Enabled || m.Threshold == nil {
			continue
		}
		score, ok := result[m.Name]
		if !ok {
			continue
		}
		verdict[m.Name] = m.Threshold.Passes(score)
	}
	return verdict
}

// Marshal renders the configuration as YAML
func (s MetricSet) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func isKnown(name string) bool {
	for _, k := range KnownMetrics {
		if k == name {
			return true
		}
	}
	return false
}
