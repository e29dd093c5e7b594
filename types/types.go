package types

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"
)

// ReportVersion is the format version written to report.json
const ReportVersion = 1

// Image is an interleaved 8-bit raster in RGB(A) channel order
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewImage allocates a zeroed image
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// SameShape reports whether both images have identical dimensions and channel count
func (img *Image) SameShape(other *Image) bool {
	return img.Width == other.Width && img.Height == other.Height && img.Channels == other.Channels
}

// Offset returns the index of the first sample of pixel (x, y)
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * img.Channels
}

// Float returns the sample at (x, y, c) normalized to [0,1]
func (img *Image) Float(x, y, c int) float64 {
	return float64(img.Pix[img.Offset(x, y)+c]) / 255.0
}

// Plane extracts one channel as float64 values scaled by the given factor
func (img *Image) Plane(c int, scale float64) []float64 {
	plane := make([]float64, img.Width*img.Height)
	for i := range plane {
		plane[i] = float64(img.Pix[i*img.Channels+c]) * scale
	}
	return plane
}

// ToImage converts to a standard library image. Gray and RGB images become opaque.
func (img *Image) ToImage() image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			var c color.NRGBA
			switch img.Channels {
			case 1:
				c = color.NRGBA{R: img.Pix[i], G: img.Pix[i], B: img.Pix[i], A: 255}
			case 3:
				c = color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: 255}
			default:
				c = color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// Pair is a matched reference/candidate file pair
type Pair struct {
	Name          string `json:"name"`
	ReferencePath string `json:"reference"`
	CandidatePath string `json:"candidate"`
}

// Score is a metric value. Non-finite values survive JSON encoding:
// +Inf is written as "inf", -Inf as "-inf" and NaN (undefined) as null.
type Score float64

// IsDefined reports whether the score carries a value
func (s Score) IsDefined() bool {
	return !math.IsNaN(float64(s))
}

func (s Score) MarshalJSON() ([]byte, error) {
	v := float64(s)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(v)
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Score(math.NaN())
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		switch text {
		case "inf", "+inf":
			*s = Score(math.Inf(1))
		case "-inf":
			*s = Score(math.Inf(-1))
		default:
			return fmt.Errorf("invalid score %q", text)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid score %s: %w", string(data), err)
	}
	*s = Score(v)
	return nil
}

// String formats the score for tables
func (s Score) String() string {
	v := float64(s)
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.5f", v)
}

// MetricResult maps metric names to scores for one test case
type MetricResult map[string]Score

// Verdict maps thresholded metric names to pass/fail
type Verdict map[string]bool

// Passed is true when every judged metric passed
func (v Verdict) Passed() bool {
	for _, ok := range v {
		if !ok {
			return false
		}
	}
	return true
}

// ImagePaths holds report-relative paths of the per-case artifacts
type ImagePaths struct {
	Reference string `json:"reference_path,omitempty"`
	Candidate string `json:"candidate_path,omitempty"`
	Diff      string `json:"diff_path,omitempty"`
	Threshold string `json:"threshold_path,omitempty"`
	Sheet     string `json:"sheet_path,omitempty"`
}

// CaseResult is the evaluated outcome of one test case
type CaseResult struct {
	Name          string            `json:"name"`
	ReferencePath string            `json:"reference"`
	CandidatePath string            `json:"candidate,omitempty"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	Resized       bool              `json:"resized,omitempty"`
	ChangedPixels int               `json:"changed_pixels"`
	Metrics       MetricResult      `json:"metrics,omitempty"`
	Passed        Verdict           `json:"passed,omitempty"`
	Pass          bool              `json:"pass"`
	Images        ImagePaths        `json:"images"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// Failed reports whether the case could not be evaluated
func (c *CaseResult) Failed() bool {
	return c.Error != ""
}

// Threshold is the serialized form of a pass/fail rule
type Threshold struct {
	Value      float64 `json:"value" yaml:"value"`
	Comparison string  `json:"comparison" yaml:"comparison"`
}

// MetricSummary aggregates one metric over all evaluated cases
type MetricSummary struct {
	Mean   Score `json:"mean"`
	Median Score `json:"median"`
	Min    Score `json:"min"`
	Max    Score `json:"max"`
}

// Summary holds run-level counts and per-metric aggregates
type Summary struct {
	Total   int                      `json:"total"`
	Passed  int                      `json:"passed"`
	Failed  int                      `json:"failed"`
	Errored int                      `json:"errored"`
	Metrics map[string]MetricSummary `json:"metrics,omitempty"`
}

// Report is the complete result of one certification run
type Report struct {
	Version     int                  `json:"version"`
	RunID       string               `json:"run_id"`
	Submission  string               `json:"submission"`
	GeneratedAt time.Time            `json:"generated_at"`
	MetricOrder []string             `json:"metric_order"`
	Thresholds  map[string]Threshold `json:"thresholds,omitempty"`
	Unmatched   []string             `json:"unmatched,omitempty"`
	Cases       []CaseResult         `json:"cases"`
	Summary     Summary              `json:"summary"`
}
