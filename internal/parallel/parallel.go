// Package parallel provides the task schedulers used to fan work out across
// the channels of a layer.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Upper bound on concurrently running tasks.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// Scheduler runs a group of independent tasks and blocks until all of them
// have finished.
//
// Run calls fn(i) for every i in [0, n). It returns only after every started
// task has returned (a join barrier), reporting the first non-nil error.
// Tasks must not depend on each other.
type Scheduler interface {
	Run(n int, fn func(i int) error) error
}

// NewScheduler returns a Pool when cfg enables parallelism with more than one
// worker, and a Sequential scheduler otherwise.
func NewScheduler(cfg Config) Scheduler {
	if !cfg.Enabled || cfg.NumWorkers == 1 {
		return Sequential{}
	}
	return NewPool(cfg.NumWorkers)
}

// Sequential runs tasks one after another on the calling goroutine, in index
// order. It is the deterministic choice for tests and debugging.
type Sequential struct{}

// Run executes fn(0) .. fn(n-1) in order, stopping at the first error.
func (Sequential) Run(n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// Pool is a bounded scheduler: at most NumWorkers tasks run at once.
//
// A Pool holds no goroutines between calls, so it needs no Close and is safe
// to share between networks.
type Pool struct {
	numWorkers int
}

// NewPool creates a pool running at most numWorkers tasks concurrently.
// If numWorkers <= 0, uses GOMAXPROCS.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: numWorkers}
}

// NumWorkers returns the concurrency bound of the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Run launches one task per index and waits for all of them. Every task is
// started even if an earlier one fails, so that per-task state is always
// left consistent; the first error is returned.
func (p *Pool) Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return fn(0)
	}

	var g errgroup.Group
	g.SetLimit(p.numWorkers)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
