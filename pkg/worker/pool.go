package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/netgram/netgram/pkg/logger"
)

var (
	ErrPoolClosed    = errors.New("worker pool is closed")
	ErrPoolStarted   = errors.New("cannot start an already started worker pool")
	ErrPoolNotActive = errors.New("worker pool has not been started")

	workerLogger = logger.Get("Worker")
)

// Task is a unit of work executed by one of the pool's workers. The
// context provided is the one the pool was started with.
type Task func(context.Context)

// WorkerPool runs a fixed number of workers which all pull tasks
// from a shared, bounded queue. Tasks are executed in the order
// they're submitted, however with more than one worker there is no
// guarantee on the order in which they complete.
type WorkerPool struct {
	label string
	size  int
	queue chan Task
	wg    sync.WaitGroup

	mutex   sync.RWMutex
	started bool
	closed  bool
}

// NewWorkerPool creates a pool of 'size' workers with a queue that can hold
// 'capacity' waiting tasks. Both are clamped to a minimum of one.
func NewWorkerPool(label string, size int, capacity int) *WorkerPool {
	return &WorkerPool{
		label: label,
		size:  max(size, 1),
		queue: make(chan Task, max(capacity, 1)),
	}
}

// Start spawns the workers of this pool as goroutines. Start does NOT
// block; call Close to stop the pool and wait for the workers to exit.
// Cancelling the context provided causes all workers to exit once their
// current task (if any) is complete, discarding any tasks still queued.
func (pool *WorkerPool) Start(ctx context.Context) error {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	if pool.started {
		return ErrPoolStarted
	}
	if pool.closed {
		return ErrPoolClosed
	}

	pool.started = true
	for i := 0; i < pool.size; i++ {
		label := fmt.Sprintf("%s-%d", pool.label, i)
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			pool.work(ctx, label)
		}()
	}

	return nil
}

func (pool *WorkerPool) work(ctx context.Context, label string) {
	workerLogger.Emit(logger.NEW, "Starting worker %s\n", label)
	defer workerLogger.Emit(logger.STOP, "Worker %s has stopped\n", label)

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-pool.queue:
			if !ok {
				return
			}

			task(ctx)
		}
	}
}

// Submit places a task on the queue, blocking while the queue is full. An
// error is returned if the pool has been closed, or if the context provided
// is cancelled before the task could be queued.
func (pool *WorkerPool) Submit(ctx context.Context, task Task) error {
	pool.mutex.RLock()
	defer pool.mutex.RUnlock()
	if pool.closed {
		return ErrPoolClosed
	}
	if !pool.started {
		return ErrPoolNotActive
	}

	select {
	case pool.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new tasks and waits for the workers to finish
// the tasks already queued (unless the pool's context has been cancelled,
// in which case queued tasks are dropped).
func (pool *WorkerPool) Close() {
	pool.mutex.Lock()
	if pool.closed {
		pool.mutex.Unlock()
		return
	}

	pool.closed = true
	close(pool.queue)
	pool.mutex.Unlock()

	pool.wg.Wait()
	if dropped := len(pool.queue); dropped > 0 {
		workerLogger.Emit(logger.WARNING, "Worker pool %s closed with %d task(s) left unprocessed\n", pool.label, dropped)
	}
}
