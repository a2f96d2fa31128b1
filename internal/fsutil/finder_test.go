package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
}

func TestFindFiles_WalksDirectoriesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.hcl"))
	writeFile(t, filepath.Join(dir, "a.yaml"))
	writeFile(t, filepath.Join(dir, "nested", "c.HCL"))
	writeFile(t, filepath.Join(dir, "ignored.txt"))

	files, err := FindFiles([]string{dir}, ".hcl", ".yaml")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "c.HCL"),
	}, files)
}

func TestFindFiles_SkipsMissingAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.hcl")
	writeFile(t, file)

	files, err := FindFiles([]string{file, filepath.Join(dir, "missing"), dir}, ".hcl")
	require.NoError(t, err)
	require.Equal(t, []string{file}, files)
}

func TestFindFiles_PanicsWithoutExtension(t *testing.T) {
	require.Panics(t, func() { _, _ = FindFiles([]string{"."}) })
}
