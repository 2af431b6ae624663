package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/semaphore"

	"nhdl/internal/downloader"
	"nhdl/pkg/config"
	"nhdl/pkg/gallery"
	"nhdl/pkg/logger"
	"nhdl/pkg/query"
	"nhdl/pkg/site"
)

// ErrFirstPageOutOfRange means the requested first page is past the last results page.
var ErrFirstPageOutOfRange = errors.New("first page must be less than the number of pages")

// Progress places a gallery inside a results page. The zero value means a
// gallery downloaded on its own.
type Progress struct {
	Index int
	Total int
}

// QueryOptions selects which results pages of a search are downloaded.
// With neither LastPage nor Count set only FirstPage is processed. A Count
// of zero means every page from FirstPage on.
type QueryOptions struct {
	Text      string
	Sort      query.SortOrder
	FirstPage uint32
	LastPage  *uint32
	Count     *uint32
}

// QuerySummary counts what DownloadQuery did.
type QuerySummary struct {
	Single      bool
	TotalPages  uint32
	Pages       int
	FailedPages int
	Galleries   int
	Failed      int
}

// Scraper drives the navigator, resolver and downloader
type Scraper struct {
	resolver   GalleryResolver
	navigator  QueryNavigator
	downloader GalleryDownloader
	config     *config.Config
	logger     logger.Logger

	mu       sync.Mutex
	observer Observer
}

// New wires a Scraper to the site described by cfg
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	client, err := site.NewClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create site client: %w", err)
	}

	return NewWithComponents(
		cfg,
		gallery.NewResolver(client, log),
		query.NewNavigator(client, log),
		downloader.NewDownloader(client, cfg.Download.ConcurrentPages, log),
		log,
	), nil
}

// NewWithComponents builds a Scraper from existing parts
func NewWithComponents(cfg *config.Config, r GalleryResolver, n QueryNavigator, d GalleryDownloader, log logger.Logger) *Scraper {
	return &Scraper{
		resolver:   r,
		navigator:  n,
		downloader: d,
		config:     cfg,
		logger:     log,
	}
}

// SetObserver registers o for gallery events; nil removes it.
func (s *Scraper) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

func (s *Scraper) currentObserver() Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// DownloadGallery resolves gallery id and downloads it into the configured output root.
func (s *Scraper) DownloadGallery(ctx context.Context, id uint32, progress Progress) (*downloader.Report, error) {
	observer := s.currentObserver()

	g, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to load gallery %d: %w", id, err)
		if observer != nil {
			observer.GalleryFinished(id, nil, err)
		}
		return nil, err
	}

	fields := map[string]interface{}{
		"gallery_id": g.ID,
		"pages":      g.Pages(),
	}
	if progress.Total > 0 {
		s.logger.InfoWithFields(fmt.Sprintf("(%d/%d) id: %d [%s] pages: %d",
			progress.Index, progress.Total, g.ID, g.DisplayTitle(), g.Pages()), fields)
	} else {
		s.logger.InfoWithFields(fmt.Sprintf("Downloading gallery: %d [%s] pages: %d",
			g.ID, g.DisplayTitle(), g.Pages()), fields)
	}
	if observer != nil {
		observer.GalleryStarted(g, progress)
	}

	out := s.config.Output
	report, err := s.downloader.Download(ctx, g, out.BaseDirectory, out.Overwrite, out.CheckMissing)
	if err != nil {
		err = fmt.Errorf("failed to download gallery %d: %w", id, err)
	}
	if observer != nil {
		observer.GalleryFinished(id, report, err)
	}
	return report, err
}

// DownloadQuery runs a search and downloads the galleries of the selected
// results pages. A page that cannot be loaded and a gallery that fails are
// logged and skipped.
func (s *Scraper) DownloadQuery(ctx context.Context, opts QueryOptions) (*QuerySummary, error) {
	if opts.FirstPage == 0 {
		return nil, errors.New("first page must be at least 1")
	}
	if opts.LastPage != nil && opts.Count != nil {
		return nil, errors.New("last page and count cannot be combined")
	}
	if opts.LastPage != nil && *opts.LastPage < opts.FirstPage {
		return nil, fmt.Errorf("last page %d is before first page %d", *opts.LastPage, opts.FirstPage)
	}

	outcome, err := s.navigator.Query(ctx, opts.Text, opts.Sort, opts.FirstPage)
	if err != nil {
		return nil, fmt.Errorf("failed to run query %q: %w", opts.Text, err)
	}

	summary := &QuerySummary{}

	if outcome.Kind == query.SingleGallery {
		s.logger.InfoWithFields("The provided query points to a single gallery", map[string]interface{}{
			"query":      opts.Text,
			"gallery_id": outcome.GalleryID,
		})
		summary.Single = true
		summary.Galleries = 1
		if _, err := s.DownloadGallery(ctx, outcome.GalleryID, Progress{}); err != nil {
			summary.Failed = 1
			return summary, err
		}
		return summary, nil
	}

	session := outcome.Session
	total := session.TotalPages()
	summary.TotalPages = total
	if opts.FirstPage > total {
		return summary, fmt.Errorf("%w (%d > %d)", ErrFirstPageOutOfRange, opts.FirstPage, total)
	}

	s.logger.InfoWithFields(fmt.Sprintf("Found %d pages available for query", total), map[string]interface{}{
		"query": opts.Text,
		"sort":  opts.Sort.String(),
	})

	last := lastPage(opts.FirstPage, total, opts.LastPage, opts.Count)
	ids := outcome.GalleryIDs

	for p := uint64(opts.FirstPage); p <= uint64(last); p++ {
		page := uint32(p)
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if page != opts.FirstPage {
			ids, err = s.navigator.LoadPage(ctx, session, page)
			if err != nil {
				s.logger.WithError(err).WarnWithFields("Failed to download query page", map[string]interface{}{
					"query": opts.Text,
					"page":  page,
				})
				summary.FailedPages++
				continue
			}
		}

		s.logger.InfoWithFields(fmt.Sprintf(">>> (%d/%d) Downloading query page #%d", page, last, page), map[string]interface{}{
			"query": opts.Text,
		})

		summary.Pages++
		summary.Galleries += len(ids)
		summary.Failed += s.downloadAll(ctx, ids)
	}

	return summary, ctx.Err()
}

// downloadAll downloads ids in listing order, at most
// download.concurrent_galleries at a time, and returns the number that failed.
func (s *Scraper) downloadAll(ctx context.Context, ids []uint32) int {
	limit := int64(s.config.Download.ConcurrentGalleries)
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(id uint32, progress Progress) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := s.DownloadGallery(ctx, id, progress); err != nil {
				s.logger.WithError(err).WarnWithFields("Failed to download gallery", map[string]interface{}{
					"gallery_id": id,
				})
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(id, Progress{Index: i + 1, Total: len(ids)})
	}

	wg.Wait()
	return failed
}

// lastPage works out the final results page, clamped to total.
func lastPage(first, total uint32, last, count *uint32) uint32 {
	end := first
	switch {
	case last != nil:
		end = *last
	case count != nil && *count == 0:
		end = total
	case count != nil:
		if *count-1 > math.MaxUint32-first {
			end = math.MaxUint32
		} else {
			end = first + *count - 1
		}
	}

	if end > total {
		end = total
	}
	return end
}
