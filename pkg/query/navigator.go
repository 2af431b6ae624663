package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"nhdl/pkg/logger"
	"nhdl/pkg/site"
)

const (
	lastPageSelector = "a.last"
	coverSelector    = "a.cover"
)

var (
	// ErrMissingLastPage means a results page has no last-page control.
	ErrMissingLastPage = errors.New("missing last-page control")

	// ErrUnexpectedRedirect means a later results page answered with a redirect.
	ErrUnexpectedRedirect = errors.New("unexpected redirect")
)

// Fetcher is the part of site.Client the navigator needs. Fetch must not
// follow redirects issued by the search page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*http.Response, error)
	Endpoints() site.Endpoints
}

// Navigator runs searches and pages through their results.
type Navigator struct {
	client Fetcher
	logger logger.Logger
}

func NewNavigator(client Fetcher, log logger.Logger) *Navigator {
	return &Navigator{client: client, logger: log}
}

// Query fetches one results page. A search that the site answers with a
// redirect to a gallery yields SingleGallery; anything else is parsed as a
// results page and yields ListResult with a new Session.
func (n *Navigator) Query(ctx context.Context, text string, sort SortOrder, page uint32) (*Outcome, error) {
	url := n.client.Endpoints().SearchURL(text, page, sort.Param())
	n.logger.TraceWithFields("Connecting to query page", map[string]interface{}{"url": url})

	resp, err := n.client.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve query page: %w", err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		n.logger.TraceWithFields("Query page is a redirection, opening gallery", map[string]interface{}{"url": url})
		id, err := n.redirectTarget(resp)
		if err != nil {
			return nil, fmt.Errorf("redirect from query %q at %s is not a gallery: %w", text, url, err)
		}
		return &Outcome{Kind: SingleGallery, GalleryID: id}, nil
	}

	doc, err := site.ParseHTML(url, resp.Body)
	if err != nil {
		return nil, err
	}

	total, err := n.lastPage(doc, url)
	if err != nil {
		return nil, err
	}
	n.logger.TraceWithFields("Query page count discovered", map[string]interface{}{
		"query": text,
		"pages": total,
	})

	return &Outcome{
		Kind:       ListResult,
		Session:    &Session{query: text, sort: sort, totalPages: total},
		GalleryIDs: n.readPage(doc, text, page),
	}, nil
}

// LoadPage fetches another results page of s. The page count is not re-read.
func (n *Navigator) LoadPage(ctx context.Context, s *Session, page uint32) ([]uint32, error) {
	url := n.client.Endpoints().SearchURL(s.query, page, s.sort.Param())
	n.logger.TraceWithFields("Connecting to query page", map[string]interface{}{"url": url})

	resp, err := n.client.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve query page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		return nil, fmt.Errorf("query page %d at %s: %w to %q", page, url, ErrUnexpectedRedirect, resp.Header.Get("Location"))
	}

	doc, err := site.ParseHTML(url, resp.Body)
	if err != nil {
		return nil, err
	}
	return n.readPage(doc, s.query, page), nil
}

func isRedirect(status int) bool {
	return status >= http.StatusMultipleChoices && status < http.StatusBadRequest
}

func (n *Navigator) redirectTarget(resp *http.Response) (uint32, error) {
	location := resp.Header.Get("Location")
	if location == "" {
		return 0, errors.New("redirect is missing the Location header")
	}

	u, err := n.client.Endpoints().Resolve(location)
	if err != nil {
		return 0, err
	}
	return site.ParseGalleryPath(u.Path)
}

// lastPage reads the total page count from the page parameter of the first
// last-page control.
func (n *Navigator) lastPage(doc *goquery.Document, url string) (uint32, error) {
	controls := doc.Find(lastPageSelector)
	switch controls.Length() {
	case 0:
		return 0, fmt.Errorf("%w at %s", ErrMissingLastPage, url)
	case 1:
	default:
		n.logger.WarnWithFields("Multiple last page controls on query page, using first", map[string]interface{}{
			"url":   url,
			"count": controls.Length(),
		})
	}

	href, ok := controls.First().Attr("href")
	if !ok {
		return 0, fmt.Errorf("missing href on last page control at %s", url)
	}

	target, err := n.client.Endpoints().Resolve(href)
	if err != nil {
		return 0, fmt.Errorf("invalid last page link at %s: %w", url, err)
	}

	values, ok := target.Query()["page"]
	if !ok || len(values) == 0 {
		return 0, fmt.Errorf("missing page parameter on last page link %q at %s", href, url)
	}

	total, err := strconv.ParseUint(values[0], 10, 32)
	if err != nil || total == 0 {
		return 0, fmt.Errorf("invalid last page number %q at %s", values[0], url)
	}
	return uint32(total), nil
}

// readPage collects gallery ids from cover links in document order. Links
// that are missing or unparseable are skipped with a warning.
func (n *Navigator) readPage(doc *goquery.Document, text string, page uint32) []uint32 {
	ids := make([]uint32, 0)

	doc.Find(coverSelector).Each(func(i int, s *goquery.Selection) {
		fields := map[string]interface{}{
			"position": i + 1,
			"page":     page,
			"query":    text,
		}

		href, ok := s.Attr("href")
		if !ok {
			n.logger.WarnWithFields("Missing link to gallery", fields)
			return
		}

		id, err := site.ParseGalleryPath(href)
		if err != nil {
			fields["href"] = href
			n.logger.WithError(err).WarnWithFields("Invalid link to gallery", fields)
			return
		}
		ids = append(ids, id)
	})

	n.logger.TraceWithFields("Galleries found on query page", map[string]interface{}{
		"count": len(ids),
		"page":  page,
		"query": text,
	})
	return ids
}
