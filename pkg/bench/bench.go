// Package bench measures and checks ray query throughput of intersectors.
package bench

import (
	"fmt"
	"time"

	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/log"
)

var logger = log.New("bench")

// DefaultBatchSize is the number of rays per worker task
const DefaultBatchSize = 256

// Config controls a benchmark run
type Config struct {
	Workers   int  // <= 0 uses runtime.NumCPU()
	BatchSize int  // <= 0 uses DefaultBatchSize
	AnyHit    bool // Trace with IntersectP
}

// Summary aggregates the results of a benchmark run
type Summary struct {
	Rays     int
	Hits     int
	Checksum float64
	Workers  int
	Duration time.Duration
}

// RaysPerSecond returns the measured throughput
func (s Summary) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Duration.Seconds()
}

// Run traces rays against target on a worker pool and aggregates the results.
// Batch results are combined in submission order so the checksum does not depend
// on scheduling.
func Run(target core.Intersector, rays []core.Ray, cfg Config) Summary {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	numTasks := (len(rays) + batchSize - 1) / batchSize

	pool := NewWorkerPool(target, numTasks, cfg.Workers)
	start := time.Now()
	pool.Start()

	for taskID := 0; taskID < numTasks; taskID++ {
		lo := taskID * batchSize
		hi := min(lo+batchSize, len(rays))
		pool.SubmitTask(RayTask{Rays: rays[lo:hi], AnyHit: cfg.AnyHit, TaskID: taskID})
	}
	pool.Stop()

	results := make([]RayResult, numTasks)
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		results[result.TaskID] = result
	}

	summary := Summary{Workers: pool.GetNumWorkers(), Duration: time.Since(start)}
	for _, r := range results {
		summary.Rays += r.Rays
		summary.Hits += r.Hits
		summary.Checksum += r.Checksum
	}

	logger.Debugf("traced %d rays (%d hits) on %d workers in %v", summary.Rays, summary.Hits, summary.Workers, summary.Duration)
	return summary
}

// Mismatch describes a ray for which two intersectors disagree
type Mismatch struct {
	Ray       int
	Reference float64 // Closest hit parameter, or -1 for a miss
	Candidate float64
	AnyHit    bool // The disagreement is in IntersectP
}

func (m Mismatch) String() string {
	if m.AnyHit {
		return fmt.Sprintf("ray %d: any-hit reference=%t candidate=%t", m.Ray, m.Reference >= 0, m.Candidate >= 0)
	}
	return fmt.Sprintf("ray %d: closest hit reference=%g candidate=%g", m.Ray, m.Reference, m.Candidate)
}

// Compare traces every ray against both intersectors and reports each ray where the
// closest hit parameters or the any-hit answers differ
func Compare(reference, candidate core.Intersector, rays []core.Ray) []Mismatch {
	var mismatches []Mismatch
	for i, ray := range rays {
		want := closestT(reference, ray)
		got := closestT(candidate, ray)
		if want != got {
			mismatches = append(mismatches, Mismatch{Ray: i, Reference: want, Candidate: got})
		}

		wantP := reference.IntersectP(ray)
		if gotP := candidate.IntersectP(ray); gotP != wantP {
			mismatches = append(mismatches, Mismatch{Ray: i, Reference: boolT(wantP), Candidate: boolT(gotP), AnyHit: true})
		}
	}
	return mismatches
}

func closestT(target core.Intersector, ray core.Ray) float64 {
	if hit, ok := target.Intersect(&ray); ok {
		return hit.T
	}
	return -1
}

func boolT(hit bool) float64 {
	if hit {
		return 0
	}
	return -1
}
