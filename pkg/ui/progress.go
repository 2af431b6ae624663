package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"nhdl/internal/downloader"
	"nhdl/pkg/gallery"
	"nhdl/pkg/scraper"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker prints one line per finished gallery and keeps totals for
// the closing summary. It implements scraper.Observer.
type StatusTracker struct {
	mu        sync.Mutex
	titles    map[uint32]string
	positions map[uint32]scraper.Progress

	Galleries  int
	Failed     int
	Untouched  int
	Downloaded int
	Skipped    int
	PageErrors int
	Bytes      int64
	StartTime  time.Time
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		titles:    make(map[uint32]string),
		positions: make(map[uint32]scraper.Progress),
		StartTime: time.Now(),
	}
}

func (st *StatusTracker) GalleryStarted(g *gallery.Gallery, progress scraper.Progress) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.titles[g.ID] = g.DisplayTitle()
	st.positions[g.ID] = progress
}

func (st *StatusTracker) GalleryFinished(id uint32, report *downloader.Report, err error) {
	st.mu.Lock()
	line := st.record(id, report, err)
	st.mu.Unlock()

	emit(err != nil, line)
}

func (st *StatusTracker) record(id uint32, report *downloader.Report, err error) string {
	st.Galleries++
	prefix := st.prefix(id)
	title := st.titles[id]
	delete(st.titles, id)
	delete(st.positions, id)

	if err != nil {
		st.Failed++
		return fmt.Sprintf("%s %s %d %s", prefix, Red("[FAILED]"), id, Dim(err.Error()))
	}

	st.Downloaded += report.Downloaded
	st.Skipped += report.Skipped
	st.PageErrors += report.Failed
	st.Bytes += report.Bytes

	if report.Untouched {
		st.Untouched++
		return fmt.Sprintf("%s %s %d %s", prefix, Dim("[EXISTS]"), id, title)
	}

	status := Green("[DONE]")
	if report.Failed > 0 {
		status = Yellow("[PARTIAL]")
	}
	return fmt.Sprintf("%s %s %d %s %s", prefix, status, id, Bar(report.Downloaded+report.Skipped, report.Pages), title)
}

func (st *StatusTracker) prefix(id uint32) string {
	p, ok := st.positions[id]
	if !ok || p.Total == 0 {
		return ">>"
	}
	return fmt.Sprintf("(%d/%d)", p.Index, p.Total)
}

// Bar renders done/total as a fixed width progress bar.
func Bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, done, total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// Summary returns the closing summary lines.
func (st *StatusTracker) Summary() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	return []string{
		fmt.Sprintf("%s %d (%d failed, %d already present)", Label("Galleries:"), st.Galleries, st.Failed, st.Untouched),
		fmt.Sprintf("%s %d downloaded, %d skipped, %d failed", Label("Pages:"), st.Downloaded, st.Skipped, st.PageErrors),
		fmt.Sprintf("%s %s", Label("Size:"), Value(FormatBytes(st.Bytes))),
		fmt.Sprintf("%s %s", Label("Elapsed:"), Value(st.GetElapsedTime().Round(time.Second).String())),
	}
}

// PrintSummary prints Summary in a box.
func (st *StatusTracker) PrintSummary() {
	PrintBox("[RUN COMPLETE]", st.Summary()...)
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
