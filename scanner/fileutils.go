package scanner

import (
	"path/filepath"
	"strings"
)

// IsReferenceFile checks the reference prefix and extension of a filename
func IsReferenceFile(name string, options MatchOptions) bool {
	return strings.HasPrefix(name, options.ReferencePrefix) && hasExtension(name, options.Extension)
}

// CandidateName substitutes the candidate prefix for the reference prefix
func CandidateName(referenceName string, options MatchOptions) string {
	return options.CandidatePrefix + strings.TrimPrefix(referenceName, options.ReferencePrefix)
}

// CaseName strips the reference prefix and the extension from a reference filename
func CaseName(referenceName string, options MatchOptions) string {
	stem := strings.TrimSuffix(referenceName, filepath.Ext(referenceName))
	return strings.TrimPrefix(stem, options.ReferencePrefix)
}

func hasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}
