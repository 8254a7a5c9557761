package scanner

import (
	"runtime"
	"sync"
)

// workerPool runs submitted jobs on a fixed number of goroutines.
type workerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

// newWorkerPool creates a pool with the given number of workers, or
// runtime.NumCPU() when workers <= 0.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &workerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Calling it again has no effect.
func (wp *workerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *workerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// Submit queues a job, blocking while the queue is full.
func (wp *workerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// Wait blocks until every submitted job has finished.
func (wp *workerPool) Wait() {
	wp.wg.Wait()
}

// Close stops the workers once the queue drains. Submit must not be called
// afterwards.
func (wp *workerPool) Close() {
	close(wp.jobQueue)
}
