package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Source yields raw dataset bytes plus a cheap identity fingerprint.
// The fingerprint changes whenever the underlying data may have changed,
// so cached tables can be invalidated without re-reading the data.
type Source interface {
	// URI identifies the source, stable across reloads
	URI() string

	// Fingerprint returns an opaque version marker for the current data
	Fingerprint(ctx context.Context) (string, error)

	// Open returns the dataset stream. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a dataset from the local filesystem
type FileSource struct {
	path string
}

// NewFileSource creates a source over a local CSV file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// URI returns the file URI of the source
func (s *FileSource) URI() string {
	return "file://" + s.path
}

// Fingerprint combines the file's modification time and size
func (s *FileSource) Fingerprint(_ context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to stat dataset file: %w", err)
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Open opens the dataset file for reading
func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	return f, nil
}
