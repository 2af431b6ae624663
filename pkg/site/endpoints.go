package site

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultHost is the site the endpoints point at unless configured otherwise.
	DefaultHost = "nhentai.net"

	// SearchPath is the search endpoint path with the slashes trimmed.
	SearchPath = "search"

	// GalleryPrefix is the first path segment of a gallery page.
	GalleryPrefix = "g"

	// ImageServers is the number of interchangeable image CDN hosts (i1..iN).
	ImageServers = 4
)

// ErrNotGalleryPath is returned when a path does not look like /g/<id>/.
var ErrNotGalleryPath = errors.New("path is not a gallery path")

// Endpoints builds URLs for one site instance.
type Endpoints struct {
	Scheme string
	Host   string
}

// NewEndpoints returns endpoints for scheme://host, defaulting to https://nhentai.net.
func NewEndpoints(scheme, host string) Endpoints {
	if scheme == "" {
		scheme = "https"
	}
	if host == "" {
		host = DefaultHost
	}
	return Endpoints{Scheme: scheme, Host: host}
}

// Root returns the site root without a trailing slash.
func (e Endpoints) Root() string {
	return e.Scheme + "://" + e.Host
}

// GalleryURL returns the gallery page URL, e.g. https://nhentai.net/g/177013
func (e Endpoints) GalleryURL(id uint32) string {
	return fmt.Sprintf("%s/%s/%d", e.Root(), GalleryPrefix, id)
}

// SearchURL returns the search URL for one results page. sort is the raw
// value of the sort parameter and is omitted when empty.
func (e Endpoints) SearchURL(query string, page uint32, sort string) string {
	u := fmt.Sprintf("%s/%s/?q=%s&page=%d", e.Root(), SearchPath, url.QueryEscape(query), page)
	if sort != "" {
		u += "&sort=" + sort
	}
	return u
}

// PageImageURL returns the URL of one page image on image server i<server>.
func (e Endpoints) PageImageURL(server int, mediaID string, page int, ext string) string {
	return fmt.Sprintf("%s://i%d.%s/galleries/%s/%d.%s", e.Scheme, server, e.Host, mediaID, page, ext)
}

// Resolve parses ref relative to the site root.
func (e Endpoints) Resolve(ref string) (*url.URL, error) {
	base, err := url.Parse(e.Root() + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid site root: %w", err)
	}
	u, err := base.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	return u, nil
}

// ParseGalleryPath extracts the id from a gallery path such as "/g/555/".
// Absolute URLs are reduced to their path first.
func ParseGalleryPath(ref string) (uint32, error) {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		path = u.Path
	}

	prefix, code, ok := strings.Cut(strings.Trim(path, "/"), "/")
	if !ok || prefix != GalleryPrefix {
		return 0, fmt.Errorf("%w: %q", ErrNotGalleryPath, ref)
	}

	id, err := strconv.ParseUint(code, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("gallery id in %q is not a number: %w", ref, err)
	}
	return uint32(id), nil
}
