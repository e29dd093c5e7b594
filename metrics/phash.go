package metrics

import (
	"fmt"

	"imagecert/types"

	"github.com/corona10/goimagehash"
)

// PerceptualDistance is the Hamming distance between the 64-bit DCT
// perceptual hashes of both images. 0 means structurally indistinguishable.
func PerceptualDistance(ref, cand *types.Image) (int, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}

	refHash, err := goimagehash.PerceptionHash(ref.ToImage())
	if err != nil {
		return 0, fmt.Errorf("failed to hash reference: %w", err)
	}
	candHash, err := goimagehash.PerceptionHash(cand.ToImage())
	if err != nil {
		return 0, fmt.Errorf("failed to hash candidate: %w", err)
	}
	return refHash.Distance(candHash)
}
