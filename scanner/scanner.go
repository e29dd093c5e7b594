package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"imagecert/logging"
	"imagecert/types"
)

var (
	ErrNoModels     = errors.New("models directory not found")
	ErrNoSubmission = errors.New("submission directory not found")
)

// DiscoverPairs walks the models tree for reference images and pairs each with
// the identically named candidate in the flat submission directory. References
// without a candidate are reported as unmatched. Reference filenames that
// occur in more than one model are ambiguous and never paired.
func DiscoverPairs(options MatchOptions) (*Discovery, error) {
	options = options.WithDefaults()

	modelsPath := filepath.Join(options.RepositoryRoot, options.ModelsDir)
	if err := requireDir(modelsPath); err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrNoModels, modelsPath, err)
	}
	if err := requireDir(options.SubmissionDir); err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrNoSubmission, options.SubmissionDir, err)
	}

	references, err := findReferences(modelsPath, options)
	if err != nil {
		return nil, err
	}

	logging.DebugLog("Found %d reference images under %s", len(references), modelsPath)

	// Group by filename to detect ambiguous references
	byName := make(map[string][]string)
	for _, path := range references {
		name := filepath.Base(path)
		byName[name] = append(byName[name], path)
	}

	discovery := &Discovery{
		Ambiguous:  make(map[string][]string),
		References: len(references),
	}

	for _, path := range references {
		name := filepath.Base(path)
		if len(byName[name]) > 1 {
			discovery.Ambiguous[name] = byName[name]
			continue
		}

		candidatePath := filepath.Join(options.SubmissionDir, CandidateName(name, options))
		info, err := os.Stat(candidatePath)
		if err != nil || info.IsDir() {
			logging.DebugLog("No candidate for %s (looked for %s)", path, candidatePath)
			discovery.Unmatched = append(discovery.Unmatched, path)
			continue
		}

		discovery.Pairs = append(discovery.Pairs, types.Pair{
			Name:          CaseName(name, options),
			ReferencePath: path,
			CandidatePath: candidatePath,
		})
	}

	for _, name := range discovery.AmbiguousNames() {
		paths := discovery.Ambiguous[name]
		logging.LogWarning("reference name %s is used by %d models, skipping: %v", name, len(paths), paths)
	}

	return discovery, nil
}

// findReferences returns every reference file below root sorted by path
func findReferences(root string, options MatchOptions) ([]string, error) {
	var references []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.LogError("Error accessing path %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsReferenceFile(d.Name(), options) {
			references = append(references, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(references)
	return references, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	return nil
}
