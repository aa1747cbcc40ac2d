package core

import (
	"context"
	"io"
)

// FileStorage stores uploaded media files.
type FileStorage interface {
	// Save stores the content of r under a unique name derived from filename and returns its path.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	// Delete removes the file at path. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL of the file at path.
	URL(path string) string
}
