package gallery

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGallery = `{
	"id": "177013",
	"media_id": "987654",
	"title": {"english": "Sample [English]", "japanese": null, "pretty": "Sample"},
	"images": {
		"pages": [{"t": "j", "w": 1280, "h": 1807}, "p", {"t": "w"}],
		"cover": {"t": "j", "w": 350, "h": 494},
		"thumbnail": "j"
	},
	"scanlator": "",
	"upload_date": 1700000000,
	"tags": [{"id": 29963, "type": "tag", "name": "full color", "url": "/tag/full-color/", "count": 100}],
	"num_pages": 3,
	"num_favorites": 42
}`

func TestDecode(t *testing.T) {
	g, err := Decode([]byte(sampleGallery))
	require.NoError(t, err)

	assert.Equal(t, uint32(177013), g.ID)
	assert.Equal(t, "987654", g.MediaID)
	assert.Equal(t, Title{English: "Sample [English]", Pretty: "Sample"}, g.Title)
	assert.Equal(t, []ImageType{ImageJpg, ImagePng, ImageWebp}, g.Images.Pages)
	assert.Equal(t, ImageJpg, g.Images.Cover)
	assert.Equal(t, ImageJpg, g.Images.Thumbnail)
	assert.Equal(t, []Tag{{ID: 29963, Name: "full color"}}, g.Tags)
	assert.Equal(t, uint32(42), g.NumFavorites)
	assert.Equal(t, uint64(1700000000), g.UploadDate)
	assert.Equal(t, 3, g.Pages())
	assert.Equal(t, "2.png", g.PageFileName(2))
	assert.Equal(t, "Sample", g.DisplayTitle())
}

func TestDecodeImageType(t *testing.T) {
	valid := []struct {
		in   string
		want ImageType
	}{
		{`"w"`, ImageWebp},
		{`{"t":"w"}`, ImageWebp},
		{`"j"`, ImageJpg},
		{`{"t":"j","w":100,"h":200}`, ImageJpg},
		{`"p"`, ImagePng},
		{`{"t":"p"}`, ImagePng},
	}
	for _, tt := range valid {
		t.Run(tt.in, func(t *testing.T) {
			var it ImageType
			require.NoError(t, json.Unmarshal([]byte(tt.in), &it))
			assert.Equal(t, tt.want, it)
		})
	}

	invalid := []string{`"x"`, `{"t":"x"}`, `{}`, `{"t":1}`, `1`, `null`, `["j"]`, `""`}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			var it ImageType
			err := json.Unmarshal([]byte(in), &it)
			assert.ErrorIs(t, err, ErrInvalidImageType)
		})
	}
}

func TestDecodeID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr error
	}{
		{in: `177013`, want: 177013},
		{in: `"177013"`, want: 177013},
		{in: `0`, want: 0},
		{in: `"4294967295"`, want: 4294967295},
		{in: `"abc"`, wantErr: ErrInvalidID},
		{in: `true`, wantErr: ErrInvalidID},
		{in: `null`, wantErr: ErrInvalidID},
		{in: `-1`, wantErr: ErrInvalidID},
		{in: `1.5`, wantErr: ErrInvalidID},
		{in: `{"id":1}`, wantErr: ErrInvalidID},
		{in: `4294967296`, wantErr: ErrIDOverflow},
		{in: `"99999999999999999999999"`, wantErr: ErrIDOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := decodeValue([]byte(tt.in))
			require.NoError(t, err)

			id, err := DecodeID(v)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

// galleryJSON builds a complete gallery payload. Each override replaces the
// raw value of a top-level field; an empty override drops the field.
func galleryJSON(overrides map[string]string) string {
	fields := []struct{ key, value string }{
		{"id", `1`},
		{"media_id", `"1"`},
		{"title", `{"english":"e","japanese":"j","pretty":"p"}`},
		{"images", `{"pages":["j"],"cover":"j","thumbnail":"j"}`},
		{"tags", `[]`},
		{"num_favorites", `0`},
		{"upload_date", `0`},
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		value := f.value
		if o, ok := overrides[f.key]; ok {
			value = o
		}
		if value == "" {
			continue
		}
		parts = append(parts, strconv.Quote(f.key)+":"+value)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func TestDecodeRequiredFields(t *testing.T) {
	g, err := Decode([]byte(galleryJSON(nil)))
	require.NoError(t, err)
	assert.Equal(t, []Tag{}, g.Tags)

	for _, field := range []string{"media_id", "title", "tags", "num_favorites", "upload_date"} {
		t.Run(field+" missing", func(t *testing.T) {
			_, err := Decode([]byte(galleryJSON(map[string]string{field: ""})))
			require.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), field+": missing required field")
		})
		t.Run(field+" null", func(t *testing.T) {
			_, err := Decode([]byte(galleryJSON(map[string]string{field: "null"})))
			require.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), field)
		})
	}

	tests := []struct {
		field string
		value string
	}{
		{"media_id", `1`},
		{"title", `"t"`},
		{"tags", `{}`},
		{"num_favorites", `"many"`},
		{"upload_date", `-1`},
	}
	for _, tt := range tests {
		t.Run(tt.field+" wrong type", func(t *testing.T) {
			_, err := Decode([]byte(galleryJSON(map[string]string{tt.field: tt.value})))
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), tt.field+":")
		})
	}
}

func TestDecodeIDInGallery(t *testing.T) {
	a, err := Decode([]byte(galleryJSON(map[string]string{"id": `177013`})))
	require.NoError(t, err)
	b, err := Decode([]byte(galleryJSON(map[string]string{"id": `"177013"`})))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, uint32(177013), a.ID)

	_, err = Decode([]byte(galleryJSON(map[string]string{"id": `"abc"`})))
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Contains(t, err.Error(), "not a number nor a number string")
}

func TestDecodeTitle(t *testing.T) {
	data := galleryJSON(map[string]string{"title": `{"english": null, "japanese": "日本語", "pretty": null}`})

	g, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "", g.Title.English)
	assert.Equal(t, "日本語", g.Title.Japanese)
	assert.Equal(t, "", g.Title.Pretty)
	assert.Equal(t, "", g.DisplayTitle())

	g, err = Decode([]byte(galleryJSON(map[string]string{"title": `{"pretty":"p"}`})))
	require.NoError(t, err)
	assert.Equal(t, Title{Pretty: "p"}, g.Title)

	g, err = Decode([]byte(galleryJSON(map[string]string{"title": `{}`})))
	require.NoError(t, err)
	assert.Equal(t, Title{}, g.Title)

	_, err = Decode([]byte(galleryJSON(map[string]string{"title": `{"english":5}`})))
	assert.Error(t, err)
}

func TestDecodePagesMustBeArray(t *testing.T) {
	for _, pages := range []string{`"j"`, `{"t":"j"}`, `null`, `3`} {
		data := galleryJSON(map[string]string{"images": `{"pages":` + pages + `,"cover":"j","thumbnail":"j"}`})
		_, err := Decode([]byte(data))
		require.Error(t, err, pages)
		assert.Contains(t, err.Error(), "images.pages")
	}

	_, err := Decode([]byte(galleryJSON(map[string]string{"images": `{"pages":["j","x"],"cover":"j","thumbnail":"j"}`})))
	require.ErrorIs(t, err, ErrInvalidImageType)
	assert.Contains(t, err.Error(), "page 2")
}

func TestDecodeCoverAndThumbnail(t *testing.T) {
	_, err := Decode([]byte(galleryJSON(map[string]string{"images": `{"pages":[],"cover":{"t":"q"},"thumbnail":"j"}`})))
	require.ErrorIs(t, err, ErrInvalidImageType)
	assert.Contains(t, err.Error(), "images.cover")

	_, err = Decode([]byte(galleryJSON(map[string]string{"images": `{"pages":[],"cover":"j"}`})))
	require.ErrorIs(t, err, ErrInvalidImageType)
	assert.Contains(t, err.Error(), "images.thumbnail")
}

func TestGalleryJSONRoundTrip(t *testing.T) {
	g, err := Decode([]byte(sampleGallery))
	require.NoError(t, err)

	data, err := json.MarshalIndent(g, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pages": [
      "j",
      "p",
      "w"
    ]`)
	assert.Contains(t, string(data), `"id": 177013`)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, g, again)
}

func TestImageTypeMarshalUnknown(t *testing.T) {
	_, err := json.Marshal(ImageUnknown)
	assert.Error(t, err)
	assert.Equal(t, "unknown(0)", ImageUnknown.String())
	assert.Equal(t, "webp", ImageWebp.String())
}
