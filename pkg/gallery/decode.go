package gallery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidImageType is returned for image entries that are not "w", "j"
	// or "p", bare or wrapped in {"t": ...}.
	ErrInvalidImageType = errors.New("invalid image type")

	// ErrInvalidID is returned when the id is neither a number nor a numeric string.
	ErrInvalidID = errors.New("not a number nor a number string")

	// ErrIDOverflow is returned when the id does not fit in 32 bits.
	ErrIDOverflow = errors.New("number overflow")

	// ErrMissingField is returned when a required gallery field is absent or null.
	ErrMissingField = errors.New("missing required field")
)

// Decode parses the gallery JSON payload.
func Decode(data []byte) (*Gallery, error) {
	var g Gallery
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

type wireTitle struct {
	English  *string `json:"english"`
	Japanese *string `json:"japanese"`
	Pretty   *string `json:"pretty"`
}

type wireImages struct {
	Pages     json.RawMessage `json:"pages"`
	Cover     json.RawMessage `json:"cover"`
	Thumbnail json.RawMessage `json:"thumbnail"`
}

type wireGallery struct {
	ID           json.RawMessage `json:"id"`
	MediaID      json.RawMessage `json:"media_id"`
	Title        json.RawMessage `json:"title"`
	Images       wireImages      `json:"images"`
	Tags         json.RawMessage `json:"tags"`
	NumFavorites json.RawMessage `json:"num_favorites"`
	UploadDate   json.RawMessage `json:"upload_date"`
}

// UnmarshalJSON applies the site's permissive rules: the id may be a number
// or a numeric string, null titles become empty and image types may be bare
// letters or {"t": letter} objects. Every other top-level field must be
// present and non-null.
func (g *Gallery) UnmarshalJSON(data []byte) error {
	var w wireGallery
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	idValue, err := decodeValue(w.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	id, err := DecodeID(idValue)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}

	var mediaID string
	if err := decodeRequired(w.MediaID, "media_id", &mediaID); err != nil {
		return err
	}
	var title wireTitle
	if err := decodeRequired(w.Title, "title", &title); err != nil {
		return err
	}

	pages, err := decodePages(w.Images.Pages)
	if err != nil {
		return fmt.Errorf("images.pages: %w", err)
	}
	cover, err := decodeImageRaw(w.Images.Cover)
	if err != nil {
		return fmt.Errorf("images.cover: %w", err)
	}
	thumbnail, err := decodeImageRaw(w.Images.Thumbnail)
	if err != nil {
		return fmt.Errorf("images.thumbnail: %w", err)
	}

	var tags []Tag
	if err := decodeRequired(w.Tags, "tags", &tags); err != nil {
		return err
	}
	var favorites uint32
	if err := decodeRequired(w.NumFavorites, "num_favorites", &favorites); err != nil {
		return err
	}
	var uploaded uint64
	if err := decodeRequired(w.UploadDate, "upload_date", &uploaded); err != nil {
		return err
	}

	*g = Gallery{
		ID:      id,
		MediaID: mediaID,
		Title: Title{
			English:  deref(title.English),
			Japanese: deref(title.Japanese),
			Pretty:   deref(title.Pretty),
		},
		Images: Images{
			Pages:     pages,
			Cover:     cover,
			Thumbnail: thumbnail,
		},
		Tags:         tags,
		NumFavorites: favorites,
		UploadDate:   uploaded,
	}
	return nil
}

// DecodeID accepts a JSON number or a string holding an unsigned integer.
// v is a value produced by a decoder with UseNumber.
func DecodeID(v any) (uint32, error) {
	var text string
	switch x := v.(type) {
	case json.Number:
		text = x.String()
	case string:
		text = x
	default:
		return 0, ErrInvalidID
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, ErrIDOverflow
	}
	if err != nil {
		return 0, ErrInvalidID
	}
	if n > math.MaxUint32 {
		return 0, ErrIDOverflow
	}
	return uint32(n), nil
}

// DecodeImageType maps a generic JSON value to an ImageType. Accepted shapes
// are "w"|"j"|"p" and {"t": "w"|"j"|"p"}.
func DecodeImageType(v any) (ImageType, error) {
	var tag string
	switch x := v.(type) {
	case string:
		tag = x
	case map[string]any:
		t, ok := x["t"].(string)
		if !ok {
			return ImageUnknown, fmt.Errorf("%w: object has no string \"t\"", ErrInvalidImageType)
		}
		tag = t
	default:
		return ImageUnknown, fmt.Errorf("%w: value is not a tag object nor a string", ErrInvalidImageType)
	}

	switch tag {
	case "w":
		return ImageWebp, nil
	case "j":
		return ImageJpg, nil
	case "p":
		return ImagePng, nil
	default:
		return ImageUnknown, fmt.Errorf("%w: %q", ErrInvalidImageType, tag)
	}
}

func decodePages(raw json.RawMessage) ([]ImageType, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, errors.New("expected array")
	}

	pages := make([]ImageType, 0, len(items))
	for i, item := range items {
		t, err := DecodeImageType(item)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, t)
	}
	return pages, nil
}

func decodeImageRaw(raw json.RawMessage) (ImageType, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return ImageUnknown, err
	}
	return DecodeImageType(v)
}

// decodeValue decodes raw into a generic value, keeping numbers as
// json.Number. Empty input (an absent field) yields nil.
func decodeValue(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeRequired unmarshals raw into v, failing with the field name when the
// field was absent or null.
func decodeRequired(raw json.RawMessage, name string, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
