package bench

import (
	"runtime"
	"sync"

	"github.com/df07/go-bvh/pkg/core"
)

// RayTask represents a batch of rays to trace against the pool's target
type RayTask struct {
	Rays   []core.Ray
	AnyHit bool // Use IntersectP instead of Intersect
	TaskID int  // For deterministic ordering
}

// RayResult contains the result from tracing one batch
type RayResult struct {
	TaskID   int
	Rays     int
	Hits     int
	Checksum float64 // Sum of closest-hit parameters in ray order, 0 for any-hit batches
}

// WorkerPool manages parallel ray queries against a shared read-only target
type WorkerPool struct {
	taskQueue   chan RayTask
	resultQueue chan RayResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual ray batches
type Worker struct {
	ID          int
	target      core.Intersector
	taskQueue   chan RayTask
	resultQueue chan RayResult
}

// NewWorkerPool creates a worker pool with room for maxTasks queued batches
func NewWorkerPool(target core.Intersector, maxTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RayTask, maxTasks),
		resultQueue: make(chan RayResult, maxTasks),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			target:      target,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers once the queued tasks are done
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a ray batch to the worker pool
func (wp *WorkerPool) SubmitTask(task RayTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed batch result
func (wp *WorkerPool) GetResult() (RayResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.trace(task)
	}
}

func (w *Worker) trace(task RayTask) RayResult {
	result := RayResult{TaskID: task.TaskID, Rays: len(task.Rays)}
	for _, ray := range task.Rays {
		if task.AnyHit {
			if w.target.IntersectP(ray) {
				result.Hits++
			}
			continue
		}

		// Each query gets its own copy so TMax never leaks between rays
		query := ray
		if hit, ok := w.target.Intersect(&query); ok {
			result.Hits++
			result.Checksum += hit.T
		}
	}
	return result
}
