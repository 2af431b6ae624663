package scraper

import (
	"context"

	"nhdl/internal/downloader"
	"nhdl/pkg/gallery"
	"nhdl/pkg/query"
)

// GalleryResolver loads the metadata of one gallery
type GalleryResolver interface {
	Resolve(ctx context.Context, id uint32) (*gallery.Gallery, error)
}

// QueryNavigator runs searches and pages through their results
type QueryNavigator interface {
	Query(ctx context.Context, text string, sort query.SortOrder, page uint32) (*query.Outcome, error)
	LoadPage(ctx context.Context, s *query.Session, page uint32) ([]uint32, error)
}

// GalleryDownloader stores the pages of a resolved gallery below root
type GalleryDownloader interface {
	Download(ctx context.Context, g *gallery.Gallery, root string, overwrite, checkMissing bool) (*downloader.Report, error)
}

// Observer is told about every gallery the scraper handles. Calls may
// come from several goroutines when galleries run concurrently.
type Observer interface {
	GalleryStarted(g *gallery.Gallery, progress Progress)
	GalleryFinished(id uint32, report *downloader.Report, err error)
}
