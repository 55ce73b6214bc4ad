package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is one file queued for upload. Body must support random access so
// every part can be read independently.
type File struct {
	Name string
	Type string // MIME type
	Size int64
	Body io.ReaderAt
}

// OpenFile opens path for upload and sniffs its MIME type. The caller
// closes the returned closer once the upload settles.
func OpenFile(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return File{}, nil, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectReader(io.NewSectionReader(f, 0, info.Size()))
	if err != nil {
		f.Close()
		return File{}, nil, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}

	return File{
		Name: filepath.Base(path),
		Type: mtype.String(),
		Size: info.Size(),
		Body: f,
	}, f, nil
}
