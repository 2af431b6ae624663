package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhdl/internal/downloader"
	"nhdl/pkg/config"
	"nhdl/pkg/gallery"
	"nhdl/pkg/logger"
	"nhdl/pkg/query"
	"nhdl/pkg/site/sitetest"
)

type fakeResolver struct {
	fail map[uint32]error
}

func (f *fakeResolver) Resolve(ctx context.Context, id uint32) (*gallery.Gallery, error) {
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return &gallery.Gallery{
		ID:      id,
		MediaID: fmt.Sprintf("m%d", id),
		Title:   gallery.Title{Pretty: fmt.Sprintf("Gallery %d", id)},
		Images:  gallery.Images{Pages: []gallery.ImageType{gallery.ImageJpg, gallery.ImagePng}},
	}, nil
}

// fakeNavigator serves results pages from pages; a redirect to single
// wins when it is set.
type fakeNavigator struct {
	single   uint32
	pages    map[uint32][]uint32
	total    uint32
	failPage map[uint32]bool

	mu     sync.Mutex
	loaded []uint32
	first  uint32
}

func (f *fakeNavigator) Query(ctx context.Context, text string, sort query.SortOrder, page uint32) (*query.Outcome, error) {
	f.mu.Lock()
	f.first = page
	f.mu.Unlock()

	if f.single != 0 {
		return &query.Outcome{Kind: query.SingleGallery, GalleryID: f.single}, nil
	}
	session, err := f.session(text, sort)
	if err != nil {
		return nil, err
	}
	return &query.Outcome{Kind: query.ListResult, Session: session, GalleryIDs: f.pages[page]}, nil
}

func (f *fakeNavigator) LoadPage(ctx context.Context, s *query.Session, page uint32) ([]uint32, error) {
	f.mu.Lock()
	f.loaded = append(f.loaded, page)
	f.mu.Unlock()

	if f.failPage[page] {
		return nil, errors.New("page unavailable")
	}
	return f.pages[page], nil
}

// session obtains a real Session from a Navigator reading a canned results page.
func (f *fakeNavigator) session(text string, sort query.SortOrder) (*query.Session, error) {
	body := fmt.Sprintf(`<html><body><a class="last" href="?page=%d">last</a></body></html>`, f.total)
	transport := sitetest.NewTransport(sitetest.HTML(body))
	nav := query.NewNavigator(sitetest.NewClient(transport, nil), logger.NewNopLogger())

	outcome, err := nav.Query(context.Background(), text, sort, 1)
	if err != nil {
		return nil, err
	}
	return outcome.Session, nil
}

type fakeDownloader struct {
	fail  map[uint32]error
	delay time.Duration

	mu       sync.Mutex
	order    []uint32
	inFlight int
	peak     int
	roots    []string
	flags    [][2]bool
}

func (f *fakeDownloader) Download(ctx context.Context, g *gallery.Gallery, root string, overwrite, checkMissing bool) (*downloader.Report, error) {
	f.mu.Lock()
	f.order = append(f.order, g.ID)
	f.roots = append(f.roots, root)
	f.flags = append(f.flags, [2]bool{overwrite, checkMissing})
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if err := f.fail[g.ID]; err != nil {
		return nil, err
	}
	return &downloader.Report{GalleryID: g.ID, Pages: g.Pages(), Downloaded: g.Pages()}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []uint32
	finished map[uint32]error
}

func (o *recordingObserver) GalleryStarted(g *gallery.Gallery, progress Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, g.ID)
}

func (o *recordingObserver) GalleryFinished(id uint32, report *downloader.Report, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished == nil {
		o.finished = map[uint32]error{}
	}
	o.finished[id] = err
}

func newTestScraper(nav *fakeNavigator, dl *fakeDownloader, res *fakeResolver) (*Scraper, *logger.TestLogger, *config.Config) {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = "/downloads"
	log := logger.NewTestLogger()
	if res == nil {
		res = &fakeResolver{}
	}
	return NewWithComponents(cfg, res, nav, dl, log), log, cfg
}

func u32(v uint32) *uint32 { return &v }

func threePages() *fakeNavigator {
	return &fakeNavigator{
		total: 3,
		pages: map[uint32][]uint32{
			1: {11, 12},
			2: {21, 22},
			3: {31},
		},
	}
}

func TestDownloadGallery(t *testing.T) {
	dl := &fakeDownloader{}
	s, log, cfg := newTestScraper(&fakeNavigator{}, dl, nil)
	cfg.Output.Overwrite = true

	report, err := s.DownloadGallery(context.Background(), 7, Progress{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Downloaded)

	assert.True(t, log.HasMessage("Downloading gallery: 7 [Gallery 7] pages: 2"))
	assert.Equal(t, []string{"/downloads"}, dl.roots)
	assert.Equal(t, [][2]bool{{true, true}}, dl.flags)
}

func TestDownloadGalleryWithProgress(t *testing.T) {
	s, log, _ := newTestScraper(&fakeNavigator{}, &fakeDownloader{}, nil)

	_, err := s.DownloadGallery(context.Background(), 8, Progress{Index: 2, Total: 5})
	require.NoError(t, err)
	assert.True(t, log.HasMessage("(2/5) id: 8 [Gallery 8] pages: 2"))
}

func TestDownloadGalleryErrors(t *testing.T) {
	res := &fakeResolver{fail: map[uint32]error{1: errors.New("gallery JSON not found")}}
	dl := &fakeDownloader{fail: map[uint32]error{2: errors.New("disk full")}}
	s, _, _ := newTestScraper(&fakeNavigator{}, dl, res)
	obs := &recordingObserver{}
	s.SetObserver(obs)

	_, err := s.DownloadGallery(context.Background(), 1, Progress{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load gallery 1")
	assert.Empty(t, dl.order)

	_, err = s.DownloadGallery(context.Background(), 2, Progress{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download gallery 2")
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, []uint32{2}, obs.started)
	assert.Error(t, obs.finished[1])
	assert.Error(t, obs.finished[2])
}

func TestDownloadQuerySingleGallery(t *testing.T) {
	nav := &fakeNavigator{single: 555}
	dl := &fakeDownloader{}
	s, log, _ := newTestScraper(nav, dl, nil)

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "#555", FirstPage: 1})
	require.NoError(t, err)
	assert.True(t, summary.Single)
	assert.Equal(t, []uint32{555}, dl.order)
	assert.True(t, log.HasMessage("The provided query points to a single gallery"))
	assert.True(t, log.HasMessage("Downloading gallery: 555 [Gallery 555] pages: 2"))
}

func TestDownloadQueryFirstPageOnly(t *testing.T) {
	nav := threePages()
	dl := &fakeDownloader{}
	s, log, _ := newTestScraper(nav, dl, nil)

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1})
	require.NoError(t, err)

	assert.Equal(t, []uint32{11, 12}, dl.order)
	assert.Empty(t, nav.loaded)
	assert.Equal(t, 1, summary.Pages)
	assert.Equal(t, uint32(3), summary.TotalPages)
	assert.True(t, log.HasMessage("Found 3 pages available for query"))
	assert.True(t, log.HasMessage("(1/2) id: 11 [Gallery 11] pages: 2"))
	assert.True(t, log.HasMessage("(2/2) id: 12 [Gallery 12] pages: 2"))
}

func TestDownloadQueryAllPages(t *testing.T) {
	nav := threePages()
	dl := &fakeDownloader{}
	s, log, _ := newTestScraper(nav, dl, nil)

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1, Count: u32(0)})
	require.NoError(t, err)

	assert.Equal(t, []uint32{11, 12, 21, 22, 31}, dl.order)
	assert.Equal(t, []uint32{2, 3}, nav.loaded)
	assert.Equal(t, 3, summary.Pages)
	assert.Equal(t, 5, summary.Galleries)
	assert.True(t, log.HasMessage(">>> (3/3) Downloading query page #3"))
}

func TestDownloadQueryCountFromLaterPage(t *testing.T) {
	nav := threePages()
	dl := &fakeDownloader{}
	s, _, _ := newTestScraper(nav, dl, nil)

	_, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 2, Count: u32(2)})
	require.NoError(t, err)

	assert.Equal(t, uint32(2), nav.first)
	assert.Equal(t, []uint32{3}, nav.loaded)
	assert.Equal(t, []uint32{21, 22, 31}, dl.order)
}

func TestDownloadQueryLastPageIsClamped(t *testing.T) {
	nav := threePages()
	dl := &fakeDownloader{}
	s, _, _ := newTestScraper(nav, dl, nil)

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 2, LastPage: u32(10)})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, nav.loaded)
	assert.Equal(t, 2, summary.Pages)
}

func TestDownloadQueryFirstPageOutOfRange(t *testing.T) {
	nav := threePages()
	dl := &fakeDownloader{}
	s, log, _ := newTestScraper(nav, dl, nil)

	_, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 4})
	assert.ErrorIs(t, err, ErrFirstPageOutOfRange)
	assert.Empty(t, dl.order)
	assert.False(t, log.HasMessage("Found 3 pages available for query"))
}

func TestDownloadQueryInvalidOptions(t *testing.T) {
	s, _, _ := newTestScraper(threePages(), &fakeDownloader{}, nil)

	_, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 0})
	assert.Error(t, err)

	_, err = s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1, LastPage: u32(2), Count: u32(1)})
	assert.Error(t, err)

	_, err = s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 3, LastPage: u32(2)})
	assert.Error(t, err)
}

func TestDownloadQuerySkipsFailures(t *testing.T) {
	nav := threePages()
	nav.failPage = map[uint32]bool{2: true}
	dl := &fakeDownloader{fail: map[uint32]error{11: errors.New("boom")}}
	s, log, _ := newTestScraper(nav, dl, nil)

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1, Count: u32(0)})
	require.NoError(t, err)

	assert.Equal(t, []uint32{11, 12, 31}, dl.order)
	assert.Equal(t, 1, summary.FailedPages)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, log.HasMessage("Failed to download query page"))
	assert.True(t, log.HasMessage("Failed to download gallery"))
	assert.True(t, log.HasMessage(">>> (1/3) Downloading query page #1"))
	assert.False(t, log.HasMessage(">>> (2/3) Downloading query page #2"))
	assert.True(t, log.HasMessage(">>> (3/3) Downloading query page #3"))
}

func TestDownloadQueryConcurrentGalleries(t *testing.T) {
	nav := &fakeNavigator{total: 1, pages: map[uint32][]uint32{1: {1, 2, 3, 4, 5, 6, 7, 8}}}
	dl := &fakeDownloader{delay: 20 * time.Millisecond}
	s, _, cfg := newTestScraper(nav, dl, nil)
	cfg.Download.ConcurrentGalleries = 3

	summary, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1})
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Galleries)
	assert.Len(t, dl.order, 8)
	assert.LessOrEqual(t, dl.peak, 3)
}

func TestDownloadQuerySequentialByDefault(t *testing.T) {
	nav := &fakeNavigator{total: 1, pages: map[uint32][]uint32{1: {5, 4, 3, 2, 1}}}
	dl := &fakeDownloader{delay: time.Millisecond}
	s, _, _ := newTestScraper(nav, dl, nil)

	_, err := s.DownloadQuery(context.Background(), QueryOptions{Text: "x", FirstPage: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 4, 3, 2, 1}, dl.order)
	assert.Equal(t, 1, dl.peak)
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		name  string
		first uint32
		total uint32
		last  *uint32
		count *uint32
		want  uint32
	}{
		{"neither", 2, 9, nil, nil, 2},
		{"last page", 2, 9, u32(5), nil, 5},
		{"last page clamped", 2, 9, u32(50), nil, 9},
		{"count zero", 3, 9, nil, u32(0), 9},
		{"count", 3, 9, nil, u32(4), 6},
		{"count clamped", 8, 9, nil, u32(4), 9},
		{"count saturates", 4000000000, 4294967295, nil, u32(4000000000), 4294967295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastPage(tt.first, tt.total, tt.last, tt.count))
		})
	}
}
