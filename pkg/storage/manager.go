package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	nherrors "nhdl/pkg/errors"
)

// partSuffix marks a page that is still being written.
const partSuffix = ".part"

// ErrPathIsFile means a regular file sits where a gallery directory belongs.
var ErrPathIsFile = errors.New("a file occupies the expected directory path")

// Manager lays out galleries below one output root as <root>/<id>/.
type Manager struct {
	root string
}

// NewManager creates a new storage manager rooted at root, creating it if needed.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, nherrors.New(nherrors.ErrorTypeFilesystem, root, "failed to create output directory", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the output root.
func (m *Manager) Root() string {
	return m.root
}

// GalleryDir returns the directory for gallery id, without touching the disk.
func (m *Manager) GalleryDir(id uint32) string {
	return filepath.Join(m.root, strconv.FormatUint(uint64(id), 10))
}

// PrepareGalleryDir makes sure the gallery directory exists. existed reports
// whether it was already there before the call.
func (m *Manager) PrepareGalleryDir(id uint32) (dir string, existed bool, err error) {
	dir = m.GalleryDir(id)

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return dir, false, fmt.Errorf("%w: %s", ErrPathIsFile, dir)
	case err == nil:
		return dir, true, nil
	case !errors.Is(err, os.ErrNotExist):
		return dir, false, nherrors.New(nherrors.ErrorTypeFilesystem, dir, "failed to inspect gallery directory", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return dir, false, nherrors.New(nherrors.ErrorTypeFilesystem, dir, "failed to create gallery directory", err)
	}
	return dir, false, nil
}

// PageExists reports whether a finished page file is at path.
func (m *Manager) PageExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SavePage copies r into path. Data goes to a .part file first and is
// renamed into place once complete; on any failure the partial file is removed.
func (m *Manager) SavePage(path string, r io.Reader) (int64, error) {
	tempFile := path + partSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, nherrors.New(nherrors.ErrorTypeFilesystem, tempFile, "failed to create page file", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return n, nherrors.New(nherrors.ErrorTypeFilesystem, path, "failed to save page data", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return n, nherrors.New(nherrors.ErrorTypeFilesystem, path, "failed to close page file", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, nherrors.New(nherrors.ErrorTypeFilesystem, path, "failed to move page into place", err)
	}

	return n, nil
}
