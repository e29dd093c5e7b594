package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rr-a.png")
	require.NoError(t, os.WriteFile(src, []byte{0x89, 'P', 'N', 'G'}, 0644))

	dst := filepath.Join(dir, "out", "reference", "a.png")
	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got)
}

func TestCopyFileMissingSource(t *testing.T) {
	err := CopyFile(filepath.Join(t.TempDir(), "nope.png"), filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestRelPath(t *testing.T) {
	base := filepath.Join("out", "run")
	assert.Equal(t, "diff/a.png", RelPath(base, filepath.Join(base, "diff", "a.png")))
	assert.Equal(t, "/abs/a.png", RelPath("relative", "/abs/a.png"))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("IMAGECERT_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOr("IMAGECERT_TEST_VALUE", "fallback"))

	t.Setenv("IMAGECERT_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOr("IMAGECERT_TEST_VALUE", "fallback"))
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
