package imageprocessor

import (
	"fmt"
	"os/exec"

	"imagecert/logging"

	"github.com/barasher/go-exiftool"
)

// MetadataTags are the tags copied from a reference file into the report
var MetadataTags = []string{"ImageWidth", "ImageHeight", "BitDepth", "ColorType", "Software", "CreateDate"}

// MetadataReader extracts file metadata through a long running exiftool process
type MetadataReader struct {
	et *exiftool.Exiftool
}

// ExiftoolAvailable checks whether the exiftool binary is on PATH
func ExiftoolAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// NewMetadataReader starts exiftool
func NewMetadataReader() (*MetadataReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}
	return &MetadataReader{et: et}, nil
}

// Read returns the known tags found in the file, formatted as strings
func (r *MetadataReader) Read(path string) (map[string]string, error) {
	fileInfos := r.et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return nil, fmt.Errorf("no metadata extracted from %s", path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		logging.LogError("Error extracting metadata from %s: %v", path, fileInfo.Err)
		return nil, fileInfo.Err
	}

	return selectTags(fileInfo.Fields, MetadataTags), nil
}

// Close stops the exiftool process
func (r *MetadataReader) Close() error {
	return r.et.Close()
}

func selectTags(fields map[string]interface{}, tags []string) map[string]string {
	out := make(map[string]string)
	for _, tag := range tags {
		if v, ok := fields[tag]; ok && v != nil {
			out[tag] = fmt.Sprint(v)
		}
	}
	return out
}
