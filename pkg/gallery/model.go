package gallery

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ImageType is the file format of one gallery image.
type ImageType int

const (
	ImageUnknown ImageType = iota
	ImageWebp
	ImageJpg
	ImagePng
)

// Extension returns the file extension used on the image servers.
func (t ImageType) Extension() string {
	switch t {
	case ImageWebp:
		return "webp"
	case ImageJpg:
		return "jpg"
	case ImagePng:
		return "png"
	default:
		return ""
	}
}

// Tag returns the single-letter wire form ("w", "j" or "p").
func (t ImageType) Tag() string {
	switch t {
	case ImageWebp:
		return "w"
	case ImageJpg:
		return "j"
	case ImagePng:
		return "p"
	default:
		return ""
	}
}

func (t ImageType) String() string {
	if ext := t.Extension(); ext != "" {
		return ext
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// MarshalJSON writes the single-letter form.
func (t ImageType) MarshalJSON() ([]byte, error) {
	if t.Tag() == "" {
		return nil, fmt.Errorf("%w: %d", ErrInvalidImageType, int(t))
	}
	return json.Marshal(t.Tag())
}

// UnmarshalJSON accepts both the bare letter and the {"t": letter} object.
func (t *ImageType) UnmarshalJSON(data []byte) error {
	v, err := decodeValue(data)
	if err != nil {
		return err
	}
	parsed, err := DecodeImageType(v)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Title holds the gallery's titles; any of them may be empty.
type Title struct {
	English  string `json:"english"`
	Japanese string `json:"japanese"`
	Pretty   string `json:"pretty"`
}

// Images lists the format of every page plus the cover and thumbnail.
type Images struct {
	Pages     []ImageType `json:"pages"`
	Cover     ImageType   `json:"cover"`
	Thumbnail ImageType   `json:"thumbnail"`
}

// Tag is a gallery tag. Extra fields the site sends (type, url, count) are dropped.
type Tag struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Gallery is the metadata of one gallery. Images.Pages is the page list:
// page i (1-based) is Images.Pages[i-1].
type Gallery struct {
	ID           uint32 `json:"id"`
	MediaID      string `json:"media_id"`
	Title        Title  `json:"title"`
	Images       Images `json:"images"`
	Tags         []Tag  `json:"tags"`
	NumFavorites uint32 `json:"num_favorites"`
	UploadDate   uint64 `json:"upload_date"`
}

// Pages returns the number of pages.
func (g *Gallery) Pages() int {
	return len(g.Images.Pages)
}

// PageFileName returns "<page>.<ext>" for a 1-based page index.
func (g *Gallery) PageFileName(page int) string {
	return fmt.Sprintf("%d.%s", page, g.Images.Pages[page-1].Extension())
}

// DisplayTitle picks the pretty title, falling back to the english one.
func (g *Gallery) DisplayTitle() string {
	if g.Title.Pretty != "" {
		return g.Title.Pretty
	}
	return g.Title.English
}
