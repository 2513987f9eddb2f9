// Package engine executes batch queries concurrently: a fixed pool of
// workers pulls batches from a queue, invokes the intel client for each, and
// hands outcomes to a collector as they complete. Cancelling the run context
// stops idle workers from claiming new batches and wakes any backoff sleep
// inside the client; a request already in flight finishes naturally.
package engine

import (
	"context"
	"sync"
	"time"

	"domainwatch/pkg/domain"
	"domainwatch/pkg/intel"
	"domainwatch/pkg/logger"
	"domainwatch/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultConcurrency is the number of worker slots when none is configured.
const DefaultConcurrency = 4

// Options configure an Engine.
type Options struct {
	// Concurrency is the number of batches processed in parallel.
	Concurrency int
	// Metrics receives per-batch instrumentation. May be nil.
	Metrics *metrics.Metrics
}

// Report summarizes a finished run. Matches collected before an interrupt
// are preserved; a cut-short run is a partial result, not an error.
type Report struct {
	// Completed counts batches whose query succeeded.
	Completed int
	// Failed counts batches abandoned after a fatal error or retry
	// exhaustion.
	Failed int
	// Cancelled counts batches claimed by a worker but cut short by
	// shutdown, plus batches never dispatched.
	Cancelled int
	// Interrupted reports whether the run context was cancelled before
	// all batches finished.
	Interrupted bool
}

// job pairs a batch with its position in the dispatch order.
type job struct {
	index   int
	domains []domain.Name
}

// Engine is the concurrent batch executor.
type Engine struct {
	client      intel.Client
	concurrency int
	metrics     *metrics.Metrics
}

// New creates an Engine that dispatches batches to the given client.
func New(client intel.Client, opts Options) *Engine {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Engine{
		client:      client,
		concurrency: concurrency,
		metrics:     opts.Metrics,
	}
}

// Run processes all batches and returns the collected matches in completion
// order. It blocks until every worker has exited: either the queue drained
// or shutdown was requested and in-flight batches wound down. Failed batches
// contribute zero matches and never abort their siblings.
func (e *Engine) Run(ctx context.Context, batches [][]domain.Name) ([]domain.Match, Report) {
	if len(batches) == 0 {
		return nil, Report{}
	}

	col := newCollector(len(batches), e.metrics)
	jobs := make(chan job)

	workers := min(e.concurrency, len(batches))

	var wg sync.WaitGroup
	for slot := 0; slot < workers; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			e.work(ctx, slot, jobs, col)
		}(slot)
	}

	go func() {
		defer close(jobs)
		for i, b := range batches {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: i, domains: b}:
			}
		}
	}()

	wg.Wait()

	return col.results(ctx.Err() != nil)
}

// work is one worker slot: it claims the next unclaimed batch and runs its
// full request/retry cycle before claiming another.
func (e *Engine) work(ctx context.Context, slot int, jobs <-chan job, col *collector) {
	ctx = logger.WithFields(ctx, zap.Int("slot", slot))

	for {
		// Never claim a new batch once shutdown was requested.
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}

			start := time.Now()
			res, err := e.client.CheckBatch(ctx, j.domains)
			elapsed := time.Since(start)

			switch {
			case err == nil:
				col.complete(ctx, j, res, elapsed)
			case ctx.Err() != nil:
				col.cancel(ctx, j)
			default:
				col.fail(ctx, j, err, res.Attempts, elapsed)
			}
		}
	}
}
