package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"nhdl/pkg/config"
	"nhdl/pkg/logger"
)

// PageJob represents a single page to fetch
type PageJob struct {
	GalleryID uint32
	Page      int
	URL       string
	Path      string
}

// PageResult represents the result of a page job
type PageResult struct {
	Job      PageJob
	Success  bool
	Error    error
	Duration time.Duration
	Size     int64
}

// PageFetcher issues GET requests; non-success statuses come back as errors.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// PageStorage persists page bodies
type PageStorage interface {
	SavePage(path string, r io.Reader) (int64, error)
}

// WorkerPool runs page jobs on a fixed number of workers. At most
// config.MaxConcurrentPages jobs are in flight at any time.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan PageJob
	resultQueue chan PageResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      PageFetcher
	storage     PageStorage
	logger      logger.Logger
}

// NewWorkerPool creates a new page worker pool. Workers stop early when ctx is cancelled.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	client PageFetcher,
	storage PageStorage,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > config.MaxConcurrentPages {
		numWorkers = config.MaxConcurrentPages
	}

	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan PageJob, numWorkers*2),
		resultQueue: make(chan PageResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		logger:      log,
	}
}

// Start starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.TraceWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes the result channel.
// Results must be drained concurrently or Stop blocks.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Trace("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job PageJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan PageResult {
	return wp.resultQueue
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job PageJob, workerID int) PageResult {
	start := time.Now()
	result := PageResult{Job: job}

	wp.logger.TraceWithFields("Worker processing page", map[string]interface{}{
		"worker_id":  workerID,
		"gallery_id": job.GalleryID,
		"page":       job.Page,
		"url":        job.URL,
	})

	resp, err := wp.client.Fetch(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	size, err := wp.storage.SavePage(job.Path, resp.Body)
	result.Size = size
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		return result
	}

	result.Success = true
	return result
}
