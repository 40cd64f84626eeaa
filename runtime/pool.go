package runtime

import (
	"context"
	"runtime"
	"sync"

	"github.com/madwave-project/madwave/internal/nlog"
)

const module = "runtime"

// Priority selects which of the two lanes a task is scheduled on, per §4.2's
// NORMAL/HIGH distinction (HIGH reserved for latency-sensitive work such as
// ready-to-run continuations of a compress/reconstruct traversal that must
// not queue behind a backlog of bulk leaf projections).
type Priority int

const (
	Normal Priority = iota
	High
)

type job struct {
	run func()
}

// Pool is a pair of fixed-size worker-goroutine lanes, one per Priority,
// dispatching arbitrary closures rather than a fixed task kind.
type Pool struct {
	normal chan job
	high   chan job
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// Option configures a Pool at construction.
type Option func(*poolConfig)

type poolConfig struct {
	normalWorkers int
	highWorkers   int
	queueDepth    int
}

// WithWorkers overrides the number of goroutines servicing the normal and
// high lanes respectively. A zero value keeps the default.
func WithWorkers(normal, high int) Option {
	return func(c *poolConfig) {
		if normal > 0 {
			c.normalWorkers = normal
		}
		if high > 0 {
			c.highWorkers = high
		}
	}
}

// WithQueueDepth overrides the per-lane channel buffer size.
func WithQueueDepth(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.queueDepth = n
		}
	}
}

// NewPool starts the worker lanes. By default the normal lane is sized to
// GOMAXPROCS and the high lane to a quarter of that (minimum 1).
func NewPool(opts ...Option) *Pool {
	n := runtime.GOMAXPROCS(0)
	cfg := poolConfig{normalWorkers: n, highWorkers: max1(n / 4), queueDepth: 1024}
	for _, o := range opts {
		o(&cfg)
	}

	p := &Pool{
		normal: make(chan job, cfg.queueDepth),
		high:   make(chan job, cfg.queueDepth),
		stopCh: make(chan struct{}),
	}
	p.wg.Add(cfg.normalWorkers + cfg.highWorkers)
	for i := 0; i < cfg.normalWorkers; i++ {
		go p.worker(p.normal, p.high)
	}
	for i := 0; i < cfg.highWorkers; i++ {
		go p.worker(p.high, p.high)
	}
	nlog.Infoln(module, "pool started", "normal", cfg.normalWorkers, "high", cfg.highWorkers)
	return p
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// worker drains primary preferentially but falls back to the high lane
// whenever primary is empty, so idle normal-lane workers help drain bursts
// of high-priority work instead of sitting blocked.
func (p *Pool) worker(primary, high chan job) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case j := <-primary:
			j.run()
		default:
			select {
			case <-p.stopCh:
				return
			case j := <-primary:
				j.run()
			case j := <-high:
				j.run()
			}
		}
	}
}

// Submit schedules fn on the given lane and returns a Future for its result.
func Submit[T any](p *Pool, prio Priority, fn func() (T, error)) *Future[T] {
	f := newFuture(fn)
	j := job{run: f.run}
	lane := p.normal
	if prio == High {
		lane = p.high
	}
	select {
	case lane <- j:
	case <-p.stopCh:
		f.val, f.err = zero[T](), context.Canceled
		close(f.done)
	}
	return f
}

func zero[T any]() T {
	var z T
	return z
}

// Close stops accepting new work and waits for in-flight tasks to drain.
func (p *Pool) Close() {
	close(p.stopCh)
	p.wg.Wait()
}
