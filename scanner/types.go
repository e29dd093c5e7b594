package scanner

import (
	"sort"

	"imagecert/types"
)

// Default naming conventions of the certification repository
const (
	DefaultModelsDir       = "models"
	DefaultReferencePrefix = "rr-"
	DefaultCandidatePrefix = "c-"
	DefaultExtension       = ".png"
)

// MatchOptions defines where references and candidates live and how they are named
type MatchOptions struct {
	RepositoryRoot  string
	ModelsDir       string
	SubmissionDir   string
	ReferencePrefix string
	CandidatePrefix string
	Extension       string
}

// WithDefaults fills unset naming fields
func (o MatchOptions) WithDefaults() MatchOptions {
	if o.ModelsDir == "" {
		o.ModelsDir = DefaultModelsDir
	}
	if o.ReferencePrefix == "" {
		o.ReferencePrefix = DefaultReferencePrefix
	}
	if o.CandidatePrefix == "" {
		o.CandidatePrefix = DefaultCandidatePrefix
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	return o
}

// Discovery is the outcome of pairing references with candidates
type Discovery struct {
	// Pairs are sorted by reference path
	Pairs []types.Pair
	// Unmatched holds reference paths without a candidate
	Unmatched []string
	// Ambiguous maps a reference filename shared by several models to their paths
	Ambiguous map[string][]string
	// References is the number of reference files found
	References int
}

// AmbiguousNames returns the ambiguous reference filenames in sorted order
func (d *Discovery) AmbiguousNames() []string {
	names := make([]string, 0, len(d.Ambiguous))
	for name := range d.Ambiguous {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
