package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	contents, err := ReadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", contents)
}

func TestReadFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	_, err := ReadFile(filepath.Join(dir, "missing.txt"), "")
	assert.ErrorContains(t, err, "could not find")

	_, err = ReadFile(dir, "")
	assert.ErrorContains(t, err, "is not a file")

	_, err = ReadFile(empty, "")
	assert.ErrorContains(t, err, "was empty")
}

func TestWriteFileAndCreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "public")
	require.NoError(t, CreateDir(dir, "🛵 "))

	path := filepath.Join(dir, "index.html")
	require.NoError(t, WriteFile(path, []byte("<html></html>"), "🛵 "))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	err = WriteFile(filepath.Join(dir, "missing", "x.html"), []byte("x"), "")
	assert.Error(t, err)
}

func TestCopyDir_SkipsReadme(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "public")

	require.NoError(t, os.WriteFile(filepath.Join(in, "favicon.ico"), []byte("ico"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "README.md"), []byte("docs"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "fonts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "fonts", "a.woff2"), []byte("font"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "fonts", "README.md"), []byte("docs"), 0644))

	require.NoError(t, CopyDir(in, out, "🪣  "))

	assert.FileExists(t, filepath.Join(out, "favicon.ico"))
	assert.FileExists(t, filepath.Join(out, "fonts", "a.woff2"))
	assert.NoFileExists(t, filepath.Join(out, "README.md"))
	assert.NoFileExists(t, filepath.Join(out, "fonts", "README.md"))
}

func TestCopyDir_MissingSource(t *testing.T) {
	err := CopyDir(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "")
	assert.Error(t, err)
}
