package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhdl/pkg/gallery"
)

func sample() *gallery.Gallery {
	return &gallery.Gallery{
		ID:      42,
		MediaID: "1001",
		Title:   gallery.Title{English: "English", Japanese: "Japanese", Pretty: "Pretty"},
		Images: gallery.Images{
			Pages:     []gallery.ImageType{gallery.ImageJpg, gallery.ImagePng, gallery.ImageWebp},
			Cover:     gallery.ImageJpg,
			Thumbnail: gallery.ImageJpg,
		},
		Tags:         []gallery.Tag{{ID: 7, Name: "tag"}},
		NumFavorites: 3,
		UploadDate:   1700000000,
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	g := sample()

	require.NoError(t, Save(dir, g))
	assert.True(t, Exists(dir))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"id\": 42,"), string(data))
	assert.Contains(t, string(data), `"pages": [`)
	assert.Contains(t, string(data), `"j"`)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, g, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	dir := t.TempDir()
	g := sample()
	require.NoError(t, Save(dir, g))

	g.NumFavorites = 99
	require.NoError(t, Save(dir, g))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), loaded.NumFavorites)
}

func TestSaveMissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "absent"), sample())
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir))

	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(Path(dir), []byte(`{"id": "x"}`), 0644))
	_, err = Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(Path(dir), []byte(`{"id":1,"media_id":"1","title":{},"images":{"pages":[],"cover":"j","thumbnail":"j"},"tags":[],"num_favorites":0}`), 0644))
	_, err = Load(dir)
	assert.ErrorIs(t, err, gallery.ErrMissingField)
	assert.Contains(t, err.Error(), "upload_date")
}

func TestSaveNilTags(t *testing.T) {
	dir := t.TempDir()
	g := sample()
	g.Tags = nil

	require.NoError(t, Save(dir, g))
	assert.Nil(t, g.Tags)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags": []`)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []gallery.Tag{}, loaded.Tags)
}

func TestMissingPages(t *testing.T) {
	dir := t.TempDir()
	g := sample()

	assert.Equal(t, []int{1, 2, 3}, MissingPages(dir, g))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.webp"), []byte("x"), 0644))
	// wrong extension does not count
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.jpg"), []byte("x"), 0644))

	assert.Equal(t, []int{2}, MissingPages(dir, g))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.png"), []byte("x"), 0644))
	assert.Empty(t, MissingPages(dir, g))
}

func TestCleanPartials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.png.part"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.webp.part"), []byte("x"), 0644))

	n, err := CleanPartials(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dir, "1.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "2.png.part"))
}
