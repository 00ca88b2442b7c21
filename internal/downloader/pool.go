package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/ratelimit"
	"pinscraper/pkg/retry"
	"pinscraper/pkg/storage"
)

// DownloadJob represents a single pin resource to fetch
type DownloadJob struct {
	Pin models.Pin
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Skipped  bool
	Path     string
	Error    error
	Duration time.Duration
	Size     int
}

// ResourceDownloader fetches the bytes behind a resource URL
type ResourceDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ResourceStorage persists downloaded resources
type ResourceStorage interface {
	IsDownloaded(pinID int64) bool
	Save(r io.Reader, pinID int64, ext string) (string, error)
}

// Config controls the pool's concurrency and per-download behavior
type Config struct {
	Workers int
	// Timeout bounds each download attempt; zero means no bound
	Timeout time.Duration
	// Retry governs repeated attempts; nil means a single attempt
	Retry *retry.Config
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	cfg            Config
	jobQueue       chan DownloadJob
	resultQueue    chan DownloadResult
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	client         ResourceDownloader
	storageManager ResourceStorage
	rateLimiter    ratelimit.Limiter
	logger         logger.Logger
}

// NewWorkerPool creates a new download worker pool bound to ctx
func NewWorkerPool(
	ctx context.Context,
	cfg Config,
	client ResourceDownloader,
	storageManager ResourceStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.Retry == nil {
		cfg.Retry = &retry.Config{MaxAttempts: 1}
	}
	retryCfg := *cfg.Retry
	if retryCfg.Logger == nil {
		retryCfg.Logger = log
	}
	retryCfg.RetryIf = retryAttemptTimeout(ctx, retryCfg.RetryIf)
	cfg.Retry = &retryCfg

	return &WorkerPool{
		cfg:            cfg,
		jobQueue:       make(chan DownloadJob, cfg.Workers*2),
		resultQueue:    make(chan DownloadResult, cfg.Workers),
		ctx:            ctx,
		cancel:         cancel,
		client:         client,
		storageManager: storageManager,
		rateLimiter:    rateLimiter,
		logger:         log,
	}
}

// retryAttemptTimeout also retries attempts that hit the per-attempt deadline
// while the pool itself is still running
func retryAttemptTimeout(ctx context.Context, retryIf func(error) bool) func(error) bool {
	if retryIf == nil {
		retryIf = retry.DefaultRetryIf
	}
	return func(err error) bool {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return true
		}
		return retryIf(err)
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.cfg.Workers,
	})

	for i := 0; i < wp.cfg.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result DownloadResult
		if err := wp.ctx.Err(); err != nil {
			result = DownloadResult{Job: job, Error: err}
		} else {
			result = wp.processJob(job, id)
		}

		// every submitted job yields exactly one result
		wp.resultQueue <- result
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	pin := job.Pin
	result := DownloadResult{Job: job}

	if wp.storageManager.IsDownloaded(pin.ID) {
		wp.logger.DebugWithFields("pin already downloaded", map[string]interface{}{
			"worker_id": workerID,
			"pin_id":    pin.ID,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	data, err := retry.DoWithResult(wp.ctx, func() ([]byte, error) {
		if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
			return nil, err
		}
		ctx := wp.ctx
		if wp.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(wp.ctx, wp.cfg.Timeout)
			defer cancel()
		}
		return wp.client.Download(ctx, pin.ResourceLink)
	}, wp.cfg.Retry)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to download pin", map[string]interface{}{
			"worker_id": workerID,
			"pin_id":    pin.ID,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
		return result
	}

	result.Size = len(data)

	path, err := wp.storageManager.Save(bytes.NewReader(data), pin.ID, storage.ExtensionFor(pin.ResourceLink))
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to save pin", map[string]interface{}{
			"worker_id": workerID,
			"pin_id":    pin.ID,
			"error":     err.Error(),
			"size":      result.Size,
		})
		return result
	}

	result.Success = true
	result.Path = path
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"pin_id":    pin.ID,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

// Summary tallies a stream of results
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	Errors     []error
}

// Add records one result
func (s *Summary) Add(r DownloadResult) {
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Success:
		s.Downloaded++
		s.Bytes += int64(r.Size)
	default:
		s.Failed++
		s.Errors = append(s.Errors, fmt.Errorf("pin %d: %w", r.Job.Pin.ID, r.Error))
	}
}

// Run downloads every pin with a pool and returns the tally. progress, when
// not nil, is called once per finished pin.
func Run(ctx context.Context, cfg Config, pins []models.Pin, client ResourceDownloader, storageManager ResourceStorage, limiter ratelimit.Limiter, log logger.Logger, progress func(DownloadResult)) Summary {
	pool := NewWorkerPool(ctx, cfg, client, storageManager, limiter, log)
	pool.Start()

	var summary Summary
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			summary.Add(result)
			if progress != nil {
				progress(result)
			}
		}
	}()

	for _, pin := range pins {
		if err := pool.Submit(DownloadJob{Pin: pin}); err != nil {
			break
		}
	}

	pool.Stop()
	<-done

	if submitted := summary.Downloaded + summary.Skipped + summary.Failed; submitted < len(pins) {
		for _, pin := range pins[submitted:] {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Errorf("pin %d: %w", pin.ID, ctx.Err()))
		}
	}

	return summary
}
