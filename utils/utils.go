package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Default file names used when no flag or environment value is given
const (
	DefaultLogFile     = "imagecert.log"
	DefaultHistoryFile = "imagecert.db"
)

// EnsureDir creates a directory and its parents if needed
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst byte for byte, creating the parent directory
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", src, err)
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("cannot copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// WriteFile writes data to path, creating the parent directory
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// RelPath returns target relative to base using forward slashes, or target
// unchanged when no relative path exists
func RelPath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

// EnvOr returns the environment value of key, or fallback when it is unset or empty
func EnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetDefaultDatabasePath returns the history database next to the executable
func GetDefaultDatabasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(filepath.Dir(exePath), DefaultHistoryFile)
}
