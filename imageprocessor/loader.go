package imageprocessor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imagecert/logging"

	"gocv.io/x/gocv"
)

// supportedExtensions lists the formats OpenCV decodes for us
var supportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// IsImageFile checks if a file extension belongs to a decodable image
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range supportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadImage decodes an image keeping its channels and bit depth
func LoadImage(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("cannot stat image %s: %w", path, err)
	}
	if !IsImageFile(path) {
		return gocv.NewMat(), newImageLoadError("unsupported image format", path)
	}

	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	if img.Empty() {
		img.Close()
		decoded, err := tryGoImagePackages(path)
		if err != nil {
			return gocv.NewMat(), newImageLoadError("failed to decode image", path)
		}
		logging.DebugLog("OpenCV could not decode %s, using Go decoder", path)
		if img, err = fromGoImage(decoded); err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to convert %s: %w", path, err)
		}
	}

	logging.DebugLog("Loaded %s (%dx%d, %d channels)", path, img.Cols(), img.Rows(), img.Channels())
	return img, nil
}

// SavePNG writes a matrix as PNG, creating the parent directory on demand
func SavePNG(path string, img gocv.Mat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if !gocv.IMWrite(path, img) {
		return fmt.Errorf("failed to write image: %s", path)
	}
	return nil
}

// Helper function to create standardized image load errors
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
