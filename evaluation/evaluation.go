// Package evaluation runs a certification batch: it pairs references with
// candidates, evaluates every pair in discovery order and assembles the report.
package evaluation

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"imagecert/config"
	"imagecert/database"
	"imagecert/imageprocessor"
	"imagecert/logging"
	"imagecert/metrics"
	"imagecert/report"
	"imagecert/scanner"
	"imagecert/types"
	"imagecert/utils"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Artifact subdirectories of the output directory
const (
	ReferenceDir = "reference"
	CandidateDir = "candidate"
	DiffDir      = "diff"
	ThresholdDir = "threshold"
	SheetDir     = "sheet"
	ConfigFile   = "metrics.yaml"
)

// Options configures one run
type Options struct {
	Match scanner.MatchOptions
	// Submission names the run in reports, defaults to the submission directory name
	Submission string
	// OutputDir receives artifacts and rendered reports when set
	OutputDir string
	Metrics   config.MetricSet
	// ConfigPath is copied next to the report when set, otherwise the effective set is written
	ConfigPath string
	// Metadata reads reference tags with exiftool
	Metadata bool
	// History records the run when set
	History *sql.DB
	// Progress receives the progress line, nil keeps the run quiet
	Progress io.Writer
}

func (o Options) submissionName() string {
	if o.Submission != "" {
		return o.Submission
	}
	return filepath.Base(filepath.Clean(o.Match.SubmissionDir))
}

// Run evaluates every discovered pair. Per-case failures are recorded on the
// case and never abort the batch; the returned error covers discovery,
// configuration, output and history failures.
func Run(opts Options) (*types.Report, error) {
	if err := opts.Metrics.Validate(); err != nil {
		return nil, err
	}

	discovery, err := scanner.DiscoverPairs(opts.Match)
	if err != nil {
		return nil, err
	}
	match := opts.Match.WithDefaults()

	PrintStartupInfo(opts.Progress, discovery, opts)
	if len(discovery.Pairs) == 0 {
		logging.LogWarning("no reference/candidate pairs found in %s", opts.Match.SubmissionDir)
	}

	rep := &types.Report{
		Version:     types.ReportVersion,
		RunID:       uuid.NewString(),
		Submission:  opts.submissionName(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		MetricOrder: opts.Metrics.Enabled(),
		Thresholds:  opts.Metrics.Thresholds(),
		Unmatched:   discovery.Unmatched,
		Cases:       make([]types.CaseResult, 0, len(discovery.Pairs)+len(discovery.Ambiguous)),
	}
	logging.LogInfo("Run %s: %d pairs for %s", rep.RunID, len(discovery.Pairs), rep.Submission)

	var meta *imageprocessor.MetadataReader
	if opts.Metadata {
		meta = openMetadataReader()
		if meta != nil {
			defer meta.Close()
		}
	}

	tracker := NewProgressTracker(opts.Progress, len(discovery.Pairs)+len(discovery.Ambiguous))
	for _, pair := range discovery.Pairs {
		result := evaluateCase(pair, opts, meta)
		rep.Cases = append(rep.Cases, result)
		tracker.Record(&rep.Cases[len(rep.Cases)-1])
	}
	for _, name := range discovery.AmbiguousNames() {
		paths := discovery.Ambiguous[name]
		result := types.CaseResult{
			Name:          scanner.CaseName(name, match),
			ReferencePath: paths[0],
			Error:         fmt.Sprintf("ambiguous reference: %d models provide %s", len(paths), name),
		}
		rep.Cases = append(rep.Cases, result)
		tracker.Record(&rep.Cases[len(rep.Cases)-1])
	}
	tracker.PrintCompletionStats()

	rep.Summary = report.Summarize(rep.Cases, rep.MetricOrder)

	if opts.OutputDir != "" {
		if err := writeOutputs(opts, rep); err != nil {
			return rep, err
		}
	}

	if opts.History != nil {
		if err := database.RecordRun(opts.History, rep); err != nil {
			return rep, fmt.Errorf("cannot record run history: %w", err)
		}
	}

	return rep, nil
}

// evaluateCase loads, normalizes, measures, judges and diffs one pair
func evaluateCase(pair types.Pair, opts Options, meta *imageprocessor.MetadataReader) types.CaseResult {
	result := types.CaseResult{
		Name:          pair.Name,
		ReferencePath: pair.ReferencePath,
		CandidatePath: pair.CandidatePath,
	}
	fail := func(err error) types.CaseResult {
		logging.LogError("Case %s: %v", pair.Name, err)
		result.Pass = false
		result.Error = err.Error()
		return result
	}

	ref, err := imageprocessor.LoadImage(pair.ReferencePath)
	defer ref.Close()
	if err != nil {
		return fail(err)
	}
	cand, err := imageprocessor.LoadImage(pair.CandidatePath)
	defer cand.Close()
	if err != nil {
		return fail(err)
	}

	normalized, err := imageprocessor.Normalize(ref, cand)
	if err != nil {
		return fail(err)
	}
	defer normalized.Close()
	result.Resized = normalized.Resized
	if normalized.Resized {
		logging.LogWarning("case %s: candidate %dx%d resized to %dx%d", pair.Name,
			normalized.CandidateSize.X, normalized.CandidateSize.Y,
			normalized.Reference.Cols(), normalized.Reference.Rows())
	}

	refImg, err := imageprocessor.ToImage(normalized.Reference)
	if err != nil {
		return fail(err)
	}
	candImg, err := imageprocessor.ToImage(normalized.Candidate)
	if err != nil {
		return fail(err)
	}
	result.Width, result.Height = refImg.Width, refImg.Height

	scores, err := metrics.Evaluate(opts.Metrics, refImg, candImg)
	if err != nil {
		return fail(err)
	}
	result.Metrics = scores
	result.Passed = opts.Metrics.Classify(scores)
	result.Pass = result.Passed.Passed()

	diff, err := imageprocessor.RenderDifference(normalized.Reference, normalized.Candidate, opts.Metrics.DiffFraction)
	if err != nil {
		return fail(err)
	}
	defer diff.Close()
	result.ChangedPixels = diff.ChangedPixels()

	if meta != nil {
		tags, err := meta.Read(pair.ReferencePath)
		if err != nil {
			logging.LogWarning("case %s: cannot read metadata: %v", pair.Name, err)
		} else {
			result.Metadata = tags
		}
	}

	if opts.OutputDir != "" {
		images, err := writeArtifacts(opts.OutputDir, pair.Name, normalized, diff, refImg, candImg)
		if err != nil {
			return fail(err)
		}
		result.Images = images
	}

	logging.DebugLog("Case %s: %v", pair.Name, scores)
	return result
}

// writeArtifacts saves the measured images, the difference, the threshold mask
// and a contact sheet under the output directory
func writeArtifacts(outDir, name string, n *imageprocessor.Normalized, d *imageprocessor.Difference, ref, cand *types.Image) (types.ImagePaths, error) {
	file := name + ".png"
	paths := types.ImagePaths{
		Reference: filepath.ToSlash(filepath.Join(ReferenceDir, file)),
		Candidate: filepath.ToSlash(filepath.Join(CandidateDir, file)),
		Diff:      filepath.ToSlash(filepath.Join(DiffDir, file)),
		Threshold: filepath.ToSlash(filepath.Join(ThresholdDir, file)),
		Sheet:     filepath.ToSlash(filepath.Join(SheetDir, file)),
	}

	mats := []struct {
		rel string
		mat gocv.Mat
	}{
		{paths.Reference, n.Reference},
		{paths.Candidate, n.Candidate},
		{paths.Diff, d.Diff},
		{paths.Threshold, d.Mask},
	}
	for _, m := range mats {
		if err := imageprocessor.SavePNG(filepath.Join(outDir, filepath.FromSlash(m.rel)), m.mat); err != nil {
			return types.ImagePaths{}, err
		}
	}

	diffImg, err := imageprocessor.ToImage(d.Diff)
	if err != nil {
		return types.ImagePaths{}, err
	}
	maskImg, err := imageprocessor.ToImage(d.Mask)
	if err != nil {
		return types.ImagePaths{}, err
	}
	tiles := []report.Tile{
		{Label: "Reference", Image: ref.ToImage()},
		{Label: "Candidate", Image: cand.ToImage()},
		{Label: "Difference", Image: diffImg.ToImage()},
		{Label: "Threshold", Image: maskImg.ToImage()},
	}
	if err := report.RenderSheet(filepath.Join(outDir, filepath.FromSlash(paths.Sheet)), tiles); err != nil {
		return types.ImagePaths{}, err
	}
	return paths, nil
}

// writeOutputs renders the JSON, PDF, spreadsheet and Markdown/HTML reports and stores the
// metric configuration used
func writeOutputs(opts Options, rep *types.Report) error {
	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return err
	}

	configPath := filepath.Join(opts.OutputDir, ConfigFile)
	if opts.ConfigPath != "" {
		if err := utils.CopyFile(opts.ConfigPath, configPath); err != nil {
			return err
		}
	} else if err := writeConfig(configPath, opts.Metrics); err != nil {
		return err
	}

	if err := report.WriteJSON(filepath.Join(opts.OutputDir, report.JSONFile), rep); err != nil {
		return err
	}
	if err := report.WritePDF(filepath.Join(opts.OutputDir, report.PDFFile), rep, opts.OutputDir); err != nil {
		return err
	}
	if err := report.WriteXLSX(filepath.Join(opts.OutputDir, report.XLSXFile), rep); err != nil {
		return err
	}
	if err := report.WriteMarkdown(opts.OutputDir, rep); err != nil {
		return err
	}
	logging.LogInfo("Reports written to %s", opts.OutputDir)
	return nil
}

func writeConfig(path string, set config.MetricSet) error {
	data, err := set.Marshal()
	if err != nil {
		return fmt.Errorf("cannot encode metric config: %w", err)
	}
	return utils.WriteFile(path, data)
}

func openMetadataReader() *imageprocessor.MetadataReader {
	if !imageprocessor.ExiftoolAvailable() {
		logging.LogWarning("exiftool not found, skipping reference metadata")
		return nil
	}
	meta, err := imageprocessor.NewMetadataReader()
	if err != nil {
		logging.LogWarning("cannot start exiftool: %v", err)
		return nil
	}
	return meta
}
