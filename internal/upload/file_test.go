package upload_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aannaassalam/coachiatry-sub001/internal/upload"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	f, closer, err := upload.OpenFile(path)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, "shot.png", f.Name)
	assert.Equal(t, "image/png", f.Type)
	assert.Equal(t, int64(len(png)), f.Size)

	head := make([]byte, 4)
	_, err = f.Body.ReadAt(head, 0)
	require.NoError(t, err)
	assert.Equal(t, png[:4], head)

	// Detection must not have consumed the body.
	all, err := io.ReadAll(io.NewSectionReader(f.Body, 0, f.Size))
	require.NoError(t, err)
	assert.Equal(t, png, all)
}

func TestOpenFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := upload.OpenFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, _, err = upload.OpenFile(dir)
	assert.Error(t, err)
}
