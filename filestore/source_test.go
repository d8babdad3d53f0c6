package filestore_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bignyap/s3filestore/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	src, err := filestore.OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "report.pdf", src.Filename())
	assert.Equal(t, int64(8), src.Size())

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = src.Seek(0, io.SeekStart)
	require.NoError(t, err)
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := filestore.OpenFile(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromReadSeeker(t *testing.T) {
	src := filestore.FromReadSeeker("notes.txt", strings.NewReader("hello"), -1)
	assert.Equal(t, "notes.txt", src.Filename())
	assert.Equal(t, int64(-1), src.Size())

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
