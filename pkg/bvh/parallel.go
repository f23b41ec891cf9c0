package bvh

import "sync"

// parallelFor splits [0, count) into chunks and runs fn over them on up to workers
// goroutines. It returns once every chunk has completed.
func parallelFor(count, chunkSize, workers int, fn func(lo, hi int)) {
	if count <= 0 {
		return
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	nChunks := (count + chunkSize - 1) / chunkSize
	if workers > nChunks {
		workers = nChunks
	}
	if workers <= 1 {
		fn(0, count)
		return
	}

	chunks := make(chan int, nChunks)
	for c := 0; c < nChunks; c++ {
		chunks <- c
	}
	close(chunks)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunks {
				lo := c * chunkSize
				fn(lo, min(lo+chunkSize, count))
			}
		}()
	}
	wg.Wait()
}
