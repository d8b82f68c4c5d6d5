package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Run will run the functions read from the given channel concurrently on
// concurrency goroutines (GOMAXPROCS goroutines when concurrency is zero or
// negative). This function returns a wait group synchronized on the invocation
// functions and a pointer to the number of tasks that have completed, which is
// updated atomically.
func Run(ch <-chan func(), concurrency int) (*sync.WaitGroup, *uint64) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	var count uint64
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for fn := range ch {
				fn()
				atomic.AddUint64(&count, 1)
			}
		}()
	}

	return &wg, &count
}
