package fd

import (
	"context"
	"runtime"
	"sync"
)

// SolveAll solves independent networks concurrently with at most workers
// goroutines. Results and errors are indexed like nets; one failure does
// not stop the others.
func SolveAll(ctx context.Context, s Equilibrium, nets []*Network, cfg Config, workers int) ([]*Result, []error) {
	results := make([]*Result, len(nets))
	errs := make([]error, len(nets))

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(nets) {
		workers = len(nets)
	}
	if workers == 0 {
		return results, errs
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = s.Solve(ctx, nets[idx], cfg)
			}
		}()
	}

	for i := range nets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, errs
}
