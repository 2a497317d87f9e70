package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"codeduel/internal/repository"
)

// RatingSyncTask propagates a player's new rating to the leaderboard cache
type RatingSyncTask struct {
	Username string
	Rating   int
}

// Pool manages a pool of workers that push rating changes into Redis off the
// request path. Settlement transactions never wait on the cache.
type Pool struct {
	jobs        chan RatingSyncTask
	workerCount int
	cache       *repository.RatingCache
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// NewPool creates a new worker pool
func NewPool(workerCount, queueSize int, cache *repository.RatingCache) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:        make(chan RatingSyncTask, queueSize),
		workerCount: workerCount,
		cache:       cache,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (wp *Pool) Start() {
	log.Printf("🚀 Starting worker pool with %d workers and queue size %d", wp.workerCount, cap(wp.jobs))

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	log.Printf("✓ Worker pool started successfully")
}

// worker is the main worker loop that processes jobs
func (wp *Pool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			log.Printf("Worker #%d shutting down", id)
			return

		case task, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processTask(id, task)
		}
	}
}

// processTask handles a single rating sync with panic recovery
func (wp *Pool) processTask(workerID int, task RatingSyncTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  Worker #%d PANIC recovered: %v (player: %s)", workerID, r, task.Username)
			wp.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := wp.cache.UpdateRating(ctx, task.Username, task.Rating)

	processingTime := time.Since(startTime)

	if err != nil {
		log.Printf("❌ Worker #%d failed to sync rating for %s: %v (took %v)",
			workerID, task.Username, err, processingTime)
		wp.metrics.incrementFailed()
		return
	}

	wp.metrics.recordSuccess(processingTime)
}

// Submit attempts to add a task to the queue with backpressure handling.
// A full queue drops the sync; the next settlement for the player will
// overwrite the stale cache entry anyway.
func (wp *Pool) Submit(task RatingSyncTask) error {
	select {
	case wp.jobs <- task:
		return nil

	default:
		log.Printf("⚠️  BACKPRESSURE WARNING: Queue full, dropping rating sync for player %s", task.Username)
		wp.metrics.incrementBackpressure()
		return fmt.Errorf("worker pool queue full (backpressure)")
	}
}

// SyncRating enqueues a rating change, ignoring backpressure drops. Used by
// the services as their fire-and-forget rating sink.
func (wp *Pool) SyncRating(username string, rating int) {
	_ = wp.Submit(RatingSyncTask{Username: username, Rating: rating})
}

// Shutdown gracefully stops the worker pool
func (wp *Pool) Shutdown(timeout time.Duration) error {
	log.Printf("🛑 Shutting down worker pool...")

	close(wp.jobs)

	done := make(chan struct{})

	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("✓ All workers finished processing remaining jobs")
		wp.printMetrics()
		return nil

	case <-time.After(timeout):
		wp.cancel()
		log.Printf("⚠️  Worker pool shutdown timed out after %v", timeout)
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetMetrics returns a snapshot of the pool metrics
func (wp *Pool) GetMetrics() map[string]interface{} {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.metrics.processed > 0 {
		avgProcessing = wp.metrics.totalProcessing / time.Duration(wp.metrics.processed)
	}

	return map[string]interface{}{
		"processed":           wp.metrics.processed,
		"failed":              wp.metrics.failed,
		"backpressure_events": wp.metrics.backpressure,
		"avg_processing_time": avgProcessing.String(),
		"queue_utilization":   fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

// printMetrics logs the final metrics
func (wp *Pool) printMetrics() {
	metrics := wp.GetMetrics()
	log.Printf("📊 Worker Pool Metrics:")
	log.Printf("   - Processed: %v", metrics["processed"])
	log.Printf("   - Failed: %v", metrics["failed"])
	log.Printf("   - Backpressure Events: %v", metrics["backpressure_events"])
	log.Printf("   - Avg Processing Time: %v", metrics["avg_processing_time"])
}

func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
