package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nhdl/pkg/gallery"
)

// FileName is the snapshot written into every gallery directory.
const FileName = "gallery.json"

// Path returns the snapshot path inside a gallery directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Save writes g into dir as a pretty-printed snapshot. The file is replaced
// atomically so a reader never sees a half-written snapshot. Nil tags are
// written as an empty list so Load accepts the result.
func Save(dir string, g *gallery.Gallery) error {
	snapshot := *g
	if snapshot.Tags == nil {
		snapshot.Tags = []gallery.Tag{}
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+FileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0644)
	}
	if err == nil {
		err = os.Rename(tmpName, Path(dir))
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the snapshot of the gallery stored in dir.
func Load(dir string) (*gallery.Gallery, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	g, err := gallery.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata file %s: %w", Path(dir), err)
	}

	return g, nil
}

// Exists checks if a snapshot exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}

// MissingPages returns the 1-based indexes of pages of g whose file is not in dir.
func MissingPages(dir string, g *gallery.Gallery) []int {
	var missing []int
	for page := 1; page <= g.Pages(); page++ {
		info, err := os.Stat(filepath.Join(dir, g.PageFileName(page)))
		if err != nil || !info.Mode().IsRegular() {
			missing = append(missing, page)
		}
	}
	return missing
}

// CleanPartials removes unfinished .part page files left in dir by an
// interrupted run and returns how many were removed.
func CleanPartials(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove partial page %s: %w", entry.Name(), err)
		}
		removed++
	}

	return removed, nil
}
