package planupdate

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a unit of work run by the worker pool
type Task func(ctx context.Context) error

// WorkerPool runs queued tasks on a fixed number of goroutines
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	closed   bool
	closeMux sync.RWMutex
}

// NewWorkerPool derives the pool context from ctx; cancelling it stops the workers
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*8),
		ctx:         poolCtx,
		cancel:      cancel,
		logger:      logger,
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Info("worker_pool_started", "workers", wp.workerCount)
}

// TrySubmit queues task without blocking and reports whether it was accepted
func (wp *WorkerPool) TrySubmit(task Task) bool {
	wp.closeMux.RLock()
	defer wp.closeMux.RUnlock()
	if wp.closed || wp.ctx.Err() != nil {
		return false
	}
	select {
	case wp.taskQueue <- task:
		return true
	default:
		return false
	}
}

// Wait closes the queue and blocks until the queued tasks are done
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	wp.logger.Info("worker_pool_stopped")
}

// Shutdown cancels running tasks, drops the queued ones and waits
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if wp.ctx.Err() != nil {
			continue
		}
		if err := task(wp.ctx); err != nil {
			wp.logger.Warn("worker_task_failed", "worker", id, "error", err)
		}
	}
}
