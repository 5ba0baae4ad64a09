// Package localfile turns paths on disk into pending photo handles.
package localfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
)

// Load stats path and sniffs its content type. The returned handle reopens
// the file on every Open, so it can be uploaded again after a failed flush,
// and Stat re-reads size and type so a flush sees the file as it is now.
func Load(path string) (domain.LocalFile, error) {
	size, mimeType, err := inspect(path)
	if err != nil {
		return domain.LocalFile{}, err
	}

	return domain.LocalFile{
		Name:      filepath.Base(path),
		SizeBytes: size,
		MimeType:  mimeType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
		Stat: func() (int64, string, error) {
			return inspect(path)
		},
	}, nil
}

func inspect(path string) (int64, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, "", fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, "", fmt.Errorf("detect type of %s: %w", path, err)
	}
	return info.Size(), mt.String(), nil
}

// LoadAll loads every path, stopping at the first error.
func LoadAll(paths []string) ([]domain.LocalFile, error) {
	files := make([]domain.LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
