package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"domainwatch/pkg/domain"
	"domainwatch/pkg/intel"
	"domainwatch/pkg/logger"
	"domainwatch/pkg/metrics"

	"go.uber.org/zap"
)

// collector is the thread-safe accumulator for batch outcomes. Matches are
// appended in completion order, which becomes the order of the final output.
// It is the only state shared between workers.
type collector struct {
	mu sync.Mutex

	total     int
	completed int
	failed    int
	cancelled int
	matches   []domain.Match

	metrics *metrics.Metrics
}

func newCollector(total int, m *metrics.Metrics) *collector {
	return &collector{total: total, metrics: m}
}

// complete records a successful batch and its matches.
func (c *collector) complete(ctx context.Context, j job, res intel.Result, elapsed time.Duration) {
	c.mu.Lock()
	c.completed++
	c.matches = append(c.matches, res.Matches...)
	progress := c.progressLocked()
	c.mu.Unlock()

	c.metrics.CountBatch(false, len(res.Matches), res.Attempts, elapsed.Seconds())

	logger.Info(ctx, "batch completed",
		zap.Int("batch", j.index),
		zap.Int("domains", len(j.domains)),
		zap.Int("matches", len(res.Matches)),
		zap.Int("attempts", res.Attempts),
		zap.Duration("elapsed", elapsed),
		zap.String("progress", progress))
}

// fail records a batch abandoned after a fatal error or retry exhaustion.
// The failure is terminal for the batch and invisible to its siblings.
func (c *collector) fail(ctx context.Context, j job, err error, attempts int, elapsed time.Duration) {
	c.mu.Lock()
	c.failed++
	progress := c.progressLocked()
	c.mu.Unlock()

	c.metrics.CountBatch(true, 0, attempts, elapsed.Seconds())

	logger.Error(ctx, "batch failed",
		zap.Int("batch", j.index),
		zap.Int("domains", len(j.domains)),
		zap.Int("attempts", attempts),
		zap.String("progress", progress),
		zap.Error(err))
}

// cancel records a batch cut short by shutdown.
func (c *collector) cancel(ctx context.Context, j job) {
	c.mu.Lock()
	c.cancelled++
	c.mu.Unlock()

	logger.Info(ctx, "batch cancelled", zap.Int("batch", j.index))
}

// results returns the accumulated matches and the run report. Batches that
// were never claimed count as cancelled.
func (c *collector) results(interrupted bool) ([]domain.Match, Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := Report{
		Completed:   c.completed,
		Failed:      c.failed,
		Cancelled:   c.total - c.completed - c.failed,
		Interrupted: interrupted,
	}

	return c.matches, report
}

func (c *collector) progressLocked() string {
	return fmt.Sprintf("%d/%d", c.completed+c.failed, c.total)
}
