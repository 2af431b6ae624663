package downloader

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"nhdl/pkg/config"
	"nhdl/pkg/gallery"
	"nhdl/pkg/logger"
	"nhdl/pkg/metadata"
	"nhdl/pkg/site"
	"nhdl/pkg/storage"
)

// Client is the part of site.Client the downloader needs.
type Client interface {
	PageFetcher
	Endpoints() site.Endpoints
}

// Report summarizes one gallery download. Unless Untouched is set,
// Downloaded, Skipped and Failed add up to Pages; pages abandoned by a
// cancellation count as failed.
type Report struct {
	GalleryID  uint32
	Dir        string
	Pages      int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	// Untouched is set when the gallery directory already existed and
	// missing pages were not checked.
	Untouched bool
}

// Downloader fetches the page images of a gallery into <root>/<id>/.
type Downloader struct {
	client  Client
	workers int
	logger  logger.Logger
	server  func() int
}

// NewDownloader returns a downloader running up to workers page fetches at
// once; the count is clamped to [1, config.MaxConcurrentPages].
func NewDownloader(client Client, workers int, log logger.Logger) *Downloader {
	if workers < 1 || workers > config.MaxConcurrentPages {
		workers = config.MaxConcurrentPages
	}
	return &Downloader{
		client:  client,
		workers: workers,
		logger:  log.WithField("component", "downloader"),
		server:  func() int { return rand.IntN(site.ImageServers) + 1 },
	}
}

// Download stores every page of g below root.
//
// A page is skipped only when overwrite is false, the gallery directory
// existed before this call and the page file is already there. When the
// directory existed and checkMissing is false nothing is touched at all.
// Failed pages are logged and counted; they do not fail the call.
func (d *Downloader) Download(ctx context.Context, g *gallery.Gallery, root string, overwrite, checkMissing bool) (*Report, error) {
	store, err := storage.NewManager(root)
	if err != nil {
		return nil, err
	}

	dir, existed, err := store.PrepareGalleryDir(g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare directory for gallery %d: %w", g.ID, err)
	}

	report := &Report{GalleryID: g.ID, Dir: dir, Pages: g.Pages()}

	if existed && !checkMissing {
		d.logger.DebugWithFields("Gallery directory already exists, skipping", map[string]interface{}{
			"gallery_id": g.ID,
			"dir":        dir,
		})
		report.Untouched = true
		return report, nil
	}

	if err := metadata.Save(dir, g); err != nil {
		d.logger.WithError(err).WarnWithFields("Failed to write gallery metadata", map[string]interface{}{
			"gallery_id": g.ID,
			"dir":        dir,
		})
	}

	jobs := d.plan(g, dir, store, existed, overwrite, report)
	if len(jobs) == 0 {
		return report, nil
	}

	workers := d.workers
	if len(jobs) < workers {
		workers = len(jobs)
	}
	pool := NewWorkerPool(ctx, workers, d.client, store, d.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	for result := range pool.Results() {
		logger.LogPage(d.logger, g.ID, result.Job.Page, false, result.Error)
		if result.Success {
			report.Downloaded++
			report.Bytes += result.Size
		} else {
			report.Failed++
		}
	}

	if err := ctx.Err(); err != nil {
		if abandoned := len(jobs) - report.Downloaded - report.Failed; abandoned > 0 {
			d.logger.WarnWithFields(fmt.Sprintf("%d pages of gallery %d were not downloaded", abandoned, g.ID), map[string]interface{}{
				"gallery_id": g.ID,
				"abandoned":  abandoned,
			})
			report.Failed += abandoned
		}
		return report, fmt.Errorf("download of gallery %d interrupted: %w", g.ID, err)
	}
	return report, nil
}

func (d *Downloader) plan(g *gallery.Gallery, dir string, store *storage.Manager, existed, overwrite bool, report *Report) []PageJob {
	endpoints := d.client.Endpoints()
	jobs := make([]PageJob, 0, g.Pages())

	for page := 1; page <= g.Pages(); page++ {
		path := filepath.Join(dir, g.PageFileName(page))

		if existed && !overwrite {
			if store.PageExists(path) {
				logger.LogPage(d.logger, g.ID, page, true, nil)
				report.Skipped++
				continue
			}
			d.logger.InfoWithFields(fmt.Sprintf("Downloading missing page #%d for gallery: %d", page, g.ID), map[string]interface{}{
				"gallery_id": g.ID,
				"page":       page,
			})
		}

		ext := g.Images.Pages[page-1].Extension()
		jobs = append(jobs, PageJob{
			GalleryID: g.ID,
			Page:      page,
			URL:       endpoints.PageImageURL(d.server(), g.MediaID, page, ext),
			Path:      path,
		})
	}

	return jobs
}
