package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nhdl/pkg/logger"
	"nhdl/pkg/site"
)

// ScriptPrefix starts the inline script that embeds the gallery JSON.
const ScriptPrefix = `window._gallery = JSON.parse("`

// ErrGalleryJSONNotFound means the gallery page has no embedded payload.
var ErrGalleryJSONNotFound = errors.New("gallery JSON not found")

// HTMLFetcher is the part of site.Client the resolver needs.
type HTMLFetcher interface {
	GetHTML(ctx context.Context, rawURL string) (*goquery.Document, error)
	Endpoints() site.Endpoints
}

// Resolver loads gallery metadata from gallery pages.
type Resolver struct {
	client HTMLFetcher
	logger logger.Logger
}

func NewResolver(client HTMLFetcher, log logger.Logger) *Resolver {
	return &Resolver{client: client, logger: log}
}

// Resolve fetches the page of gallery id and decodes its embedded metadata.
func (r *Resolver) Resolve(ctx context.Context, id uint32) (*Gallery, error) {
	url := r.client.Endpoints().GalleryURL(id)
	r.logger.TraceWithFields("Connecting to gallery", map[string]interface{}{
		"gallery_id": id,
		"url":        url,
	})

	doc, err := r.client.GetHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve gallery %d: %w", id, err)
	}

	payload, err := ExtractPayload(doc)
	if err != nil {
		return nil, fmt.Errorf("gallery %d at %s: %w", id, url, err)
	}

	g, err := Decode([]byte(ReplaceUnicodeEscapes(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gallery json info of gallery %d: %w", id, err)
	}

	r.logger.TraceWithFields("Gallery metadata decoded", map[string]interface{}{
		"gallery_id": g.ID,
		"media_id":   g.MediaID,
		"pages":      g.Pages(),
	})
	return g, nil
}

// ExtractPayload returns the raw JSON string literal of the first script whose
// trimmed text starts with ScriptPrefix, up to its first unescaped quote.
func ExtractPayload(doc *goquery.Document) (string, error) {
	var payload string
	found := false

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rest, ok := strings.CutPrefix(strings.TrimSpace(s.Text()), ScriptPrefix)
		if !ok {
			return true
		}
		payload, found = cutQuoted(rest)
		return !found
	})

	if !found {
		return "", ErrGalleryJSONNotFound
	}
	return payload, nil
}

// cutQuoted returns s up to the first '"' not preceded by a backslash escape.
func cutQuoted(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return s[:i], true
		}
	}
	return "", false
}
