// Package jobs runs document conversions concurrently.
//
// Each document is converted independently by one worker; workers share a
// single queue, so load balances naturally via Go channel semantics.
package jobs

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Harsidak/papermd/internal/convert"
)

// Converter converts one document. *convert.Pipeline implements it.
type Converter interface {
	Convert(ctx context.Context, path string) (*convert.Result, error)
}

// WorkUnit is one document waiting in the queue.
type WorkUnit struct {
	Index int // position in the submitted batch
	Path  string
}

// Outcome is the result of one work unit. Exactly one of Result and Err is set.
type Outcome struct {
	Index  int             `json:"-" yaml:"-"`
	Path   string          `json:"path" yaml:"path"`
	Result *convert.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Err    error           `json:"-" yaml:"-"`
}

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name" yaml:"name"`
	Workers    int    `json:"workers" yaml:"workers"`
	InFlight   int    `json:"in_flight" yaml:"in_flight"`
	QueueDepth int    `json:"queue_depth" yaml:"queue_depth"`
	Completed  int64  `json:"completed" yaml:"completed"`
	Failed     int64  `json:"failed" yaml:"failed"`
}

// PoolConfig configures a new document pool.
type PoolConfig struct {
	Name        string
	Logger      *slog.Logger
	WorkerCount int // Number of worker goroutines (default: runtime.NumCPU())

	// OnComplete, if set, is called from the worker goroutine as each
	// document finishes.
	OnComplete func(Outcome)
}

// Pool converts batches of documents with a fixed number of workers.
type Pool struct {
	name        string
	logger      *slog.Logger
	workerCount int
	onComplete  func(Outcome)

	mu    sync.Mutex
	queue chan WorkUnit

	inFlight  atomic.Int32
	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a new document pool.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "documents"
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	return &Pool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		onComplete:  cfg.OnComplete,
	}
}

// Run converts every path and returns one outcome per path, in input order.
// A failed document does not stop the others. Once ctx is cancelled, queued
// documents are not started and report ctx.Err().
func (p *Pool) Run(ctx context.Context, conv Converter, paths []string) []Outcome {
	outcomes := make([]Outcome, len(paths))
	if len(paths) == 0 {
		return outcomes
	}

	queue := make(chan WorkUnit, len(paths))
	for i, path := range paths {
		queue <- WorkUnit{Index: i, Path: path}
	}
	close(queue)

	p.mu.Lock()
	p.queue = queue
	p.mu.Unlock()

	workers := min(p.workerCount, len(paths))
	p.logger.Debug("pool starting", "documents", len(paths), "active_workers", workers)

	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id, conv, queue, outcomes)
		}(id)
	}
	wg.Wait()

	p.logger.Debug("pool finished", "completed", p.completed.Load(), "failed", p.failed.Load())
	return outcomes
}

// worker drains the shared queue. Each unit writes only its own outcome slot.
func (p *Pool) worker(ctx context.Context, id int, conv Converter, queue <-chan WorkUnit, outcomes []Outcome) {
	p.logger.Debug("worker started", "worker_id", id)
	for unit := range queue {
		out := Outcome{Index: unit.Index, Path: unit.Path}
		if err := ctx.Err(); err != nil {
			out.Err = err
		} else {
			p.inFlight.Add(1)
			out.Result, out.Err = conv.Convert(ctx, unit.Path)
			p.inFlight.Add(-1)
		}

		if out.Err != nil {
			p.failed.Add(1)
			p.logger.Debug("document failed", "worker_id", id, "path", unit.Path, "error", out.Err)
		} else {
			p.completed.Add(1)
		}
		outcomes[unit.Index] = out
		if p.onComplete != nil {
			p.onComplete(out)
		}
	}
}

// Status returns current pool status.
func (p *Pool) Status() PoolStatus {
	p.mu.Lock()
	depth := 0
	if p.queue != nil {
		depth = len(p.queue)
	}
	p.mu.Unlock()

	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: depth,
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
	}
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Verify interface compliance
var _ Converter = (*convert.Pipeline)(nil)
