package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"imagecert/logging"
	"imagecert/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
}

func layout(t *testing.T, refs map[string]string, candidates []string) (string, string) {
	t.Helper()
	logging.SetConsole(nil)
	t.Cleanup(func() { logging.SetConsole(os.Stderr) })

	root := t.TempDir()
	for name, model := range refs {
		touch(t, filepath.Join(root, "models", model, name))
	}
	submission := filepath.Join(root, "submission")
	require.NoError(t, os.MkdirAll(submission, 0755))
	for _, name := range candidates {
		touch(t, filepath.Join(submission, name))
	}
	return root, submission
}

func TestDiscoverPairsMatchesByPrefixSubstitution(t *testing.T) {
	root, submission := layout(t,
		map[string]string{"rr-a.png": "Box", "rr-b.png": "Duck"},
		[]string{"c-a.png", "c-c.png"})

	d, err := DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: submission})
	require.NoError(t, err)

	assert.Equal(t, []types.Pair{{
		Name:          "a",
		ReferencePath: filepath.Join(root, "models", "Box", "rr-a.png"),
		CandidatePath: filepath.Join(submission, "c-a.png"),
	}}, d.Pairs)
	assert.Equal(t, []string{filepath.Join(root, "models", "Duck", "rr-b.png")}, d.Unmatched)
	assert.Equal(t, 2, d.References)
	assert.Empty(t, d.Ambiguous)
}

func TestDiscoverPairsIsSortedAndNested(t *testing.T) {
	root, submission := layout(t,
		map[string]string{
			"rr-zeta.png":  "A",
			"rr-alpha.png": "Z/deep",
			"rr-mid.PNG":   "M",
			"notes.txt":    "A",
			"r-other.png":  "A",
		},
		[]string{"c-zeta.png", "c-alpha.png", "c-mid.PNG"})

	d, err := DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: submission})
	require.NoError(t, err)

	names := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		names[i] = p.Name
	}
	// ordered by reference path: models/A, models/M, models/Z/deep
	assert.Equal(t, []string{"zeta", "mid", "alpha"}, names)
	assert.Equal(t, 3, d.References)

	again, err := DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: submission})
	require.NoError(t, err)
	assert.Equal(t, d.Pairs, again.Pairs)
}

func TestDiscoverPairsAmbiguousNames(t *testing.T) {
	logging.SetConsole(nil)
	defer logging.SetConsole(os.Stderr)

	root := t.TempDir()
	touch(t, filepath.Join(root, "models", "One", "rr-x.png"))
	touch(t, filepath.Join(root, "models", "Two", "rr-x.png"))
	touch(t, filepath.Join(root, "models", "Two", "rr-y.png"))
	submission := filepath.Join(root, "sub")
	touch(t, filepath.Join(submission, "c-x.png"))
	touch(t, filepath.Join(submission, "c-y.png"))

	d, err := DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: submission})
	require.NoError(t, err)

	require.Len(t, d.Pairs, 1)
	assert.Equal(t, "y", d.Pairs[0].Name)
	assert.Equal(t, []string{"rr-x.png"}, d.AmbiguousNames())
	assert.Len(t, d.Ambiguous["rr-x.png"], 2)
}

func TestDiscoverPairsEmpty(t *testing.T) {
	root, submission := layout(t, map[string]string{"rr-a.png": "Box"}, nil)

	d, err := DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: submission})
	require.NoError(t, err)
	assert.Empty(t, d.Pairs)
	assert.Len(t, d.Unmatched, 1)
}

func TestDiscoverPairsMissingDirectories(t *testing.T) {
	root, submission := layout(t, map[string]string{"rr-a.png": "Box"}, nil)

	_, err := DiscoverPairs(MatchOptions{RepositoryRoot: t.TempDir(), SubmissionDir: submission})
	assert.ErrorIs(t, err, ErrNoModels)

	_, err = DiscoverPairs(MatchOptions{RepositoryRoot: root, SubmissionDir: filepath.Join(root, "nope")})
	assert.ErrorIs(t, err, ErrNoSubmission)
}

func TestCustomPrefixes(t *testing.T) {
	opts := MatchOptions{ReferencePrefix: "ref_", CandidatePrefix: "shot_", Extension: ".jpg"}.WithDefaults()
	assert.True(t, IsReferenceFile("ref_cube.JPG", opts))
	assert.False(t, IsReferenceFile("ref_cube.png", opts))
	assert.Equal(t, "shot_cube.jpg", CandidateName("ref_cube.jpg", opts))
	assert.Equal(t, "cube", CaseName("ref_cube.jpg", opts))
	assert.Equal(t, DefaultModelsDir, opts.ModelsDir)
}
