package mediasvc

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educa/core"
)

// filesDir is where item files are stored, relative to the media root.
const filesDir = "files"

// localStorage stores media files on the local disk, under root.
type localStorage struct {
	root string
	url  string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) core.FileStorage {
	return &localStorage{root: conf.Media.Root, url: strings.TrimSuffix(conf.Media.URL, "/")}
}

// Save writes r to a new file named after a UUID, keeping the extension of filename.
func (s *localStorage) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filepath.Base(filename)))
	relPath := path.Join(filesDir, name)
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media directory")
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return "", errors.Wrap(err, "writing media file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing media file")
	}
	return relPath, nil
}

func (s *localStorage) Delete(_ context.Context, relPath string) error {
	fullPath, err := s.fullPath(relPath)
	if err != nil {
		return err
	}
	if err = os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing media file")
	}
	return nil
}

func (s *localStorage) URL(relPath string) string {
	return s.url + "/" + relPath
}

// fullPath resolves relPath under the media root, refusing paths escaping it.
func (s *localStorage) fullPath(relPath string) (string, error) {
	cleaned := path.Clean("/" + relPath)
	if cleaned == "/" || cleaned != "/"+relPath {
		return "", errors.Errorf("invalid media path %q", relPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(relPath)), nil
}
