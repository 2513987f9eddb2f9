package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"domainwatch/internal/engine"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/intel"
	"domainwatch/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// fakeClient implements intel.Client with a pluggable behavior.
type fakeClient struct {
	fn func(ctx context.Context, domains []domain.Name) (intel.Result, error)
}

func (f *fakeClient) CheckBatch(ctx context.Context, domains []domain.Name) (intel.Result, error) {
	return f.fn(ctx, domains)
}

func singletons(names ...domain.Name) [][]domain.Name {
	out := make([][]domain.Name, len(names))
	for i, n := range names {
		out[i] = []domain.Name{n}
	}

	return out
}

func matchFor(d domain.Name) intel.Result {
	return intel.Result{
		Matches:  []domain.Match{{Domain: d, Categories: []domain.Category{domain.CategoryEmployee}, ObservedAt: time.Now()}},
		Attempts: 1,
	}
}

func TestRun_AllBatchesSucceed(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, ds []domain.Name) (intel.Result, error) {
		return matchFor(ds[0]), nil
	}}

	batches := singletons("a.com", "b.com", "c.com", "d.com", "e.com")
	eng := engine.New(client, engine.Options{Concurrency: 3})

	matches, rep := eng.Run(context.Background(), batches)
	require.Len(t, matches, 5)
	require.Equal(t, 5, rep.Completed)
	require.Zero(t, rep.Failed)
	require.Zero(t, rep.Cancelled)
	require.False(t, rep.Interrupted)

	got := make(map[domain.Name]bool)
	for _, m := range matches {
		got[m.Domain] = true
	}
	for _, b := range batches {
		require.True(t, got[b[0]], "missing match for %s", b[0])
	}
}

func TestRun_CompletionOrderWithSingleWorker(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, ds []domain.Name) (intel.Result, error) {
		return matchFor(ds[0]), nil
	}}

	batches := singletons("c.com", "a.com", "b.com")
	eng := engine.New(client, engine.Options{Concurrency: 1})

	matches, _ := eng.Run(context.Background(), batches)
	require.Len(t, matches, 3)

	// With one worker, completion order is dispatch order, which the
	// collector preserves.
	require.Equal(t, domain.Name("c.com"), matches[0].Domain)
	require.Equal(t, domain.Name("a.com"), matches[1].Domain)
	require.Equal(t, domain.Name("b.com"), matches[2].Domain)
}

func TestRun_PartialFailureKeepsOtherResults(t *testing.T) {
	failing := map[domain.Name]bool{"b3.com": true, "b5.com": true, "b7.com": true}

	client := &fakeClient{fn: func(_ context.Context, ds []domain.Name) (intel.Result, error) {
		if failing[ds[0]] {
			return intel.Result{Attempts: 5}, serrors.With(serrors.ErrTransient, "all 5 attempts failed")
		}

		return matchFor(ds[0]), nil
	}}

	var names []domain.Name
	for _, n := range []string{"b0.com", "b1.com", "b2.com", "b3.com", "b4.com", "b5.com", "b6.com", "b7.com", "b8.com", "b9.com"} {
		names = append(names, domain.Name(n))
	}

	eng := engine.New(client, engine.Options{Concurrency: 4})
	matches, rep := eng.Run(context.Background(), singletons(names...))

	require.Equal(t, 7, rep.Completed)
	require.Equal(t, 3, rep.Failed)
	require.Len(t, matches, 7, "failed batches must not discard sibling results")
	for _, m := range matches {
		require.False(t, failing[m.Domain])
	}
}

func TestRun_ConcurrencyBounded(t *testing.T) {
	var current, peak int64

	client := &fakeClient{fn: func(_ context.Context, ds []domain.Name) (intel.Result, error) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&current, -1)

		return matchFor(ds[0]), nil
	}}

	batches := singletons(
		"a.com", "b.com", "c.com", "d.com", "e.com", "f.com",
		"g.com", "h.com", "i.com", "j.com", "k.com", "l.com")

	eng := engine.New(client, engine.Options{Concurrency: 4})
	_, rep := eng.Run(context.Background(), batches)

	require.Equal(t, 12, rep.Completed)
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(4), "no more than 4 batches may run at once")
}

func TestRun_CancellationStopsClaimingAndPreservesMatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var claimed int64
	firstTwo := make(chan struct{}, 2)
	var once sync.Once

	client := &fakeClient{fn: func(ctx context.Context, ds []domain.Name) (intel.Result, error) {
		n := atomic.AddInt64(&claimed, 1)
		if n <= 2 {
			firstTwo <- struct{}{}
		}

		// The first two claimed batches complete; shutdown fires while
		// they are in flight. Everything after must never be claimed.
		once.Do(func() {
			<-firstTwo
			<-firstTwo
			cancel()
		})
		<-ctx.Done()

		return matchFor(ds[0]), nil
	}}

	batches := singletons("a.com", "b.com", "c.com", "d.com", "e.com", "f.com")
	eng := engine.New(client, engine.Options{Concurrency: 2})

	done := make(chan struct{})
	var matches []domain.Match
	var rep engine.Report
	go func() {
		defer close(done)
		matches, rep = eng.Run(ctx, batches)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not drain after cancellation")
	}

	require.True(t, rep.Interrupted)
	require.EqualValues(t, 2, atomic.LoadInt64(&claimed), "idle workers must not claim batches after shutdown")
	require.Equal(t, 2, rep.Completed, "in-flight batches complete naturally")
	require.Equal(t, 4, rep.Cancelled)
	require.Len(t, matches, 2, "matches collected before shutdown are preserved")
}

func TestRun_NoBatches(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, ds []domain.Name) (intel.Result, error) {
		t.Fatal("client must not be called")

		return intel.Result{}, nil
	}}

	matches, rep := engine.New(client, engine.Options{}).Run(context.Background(), nil)
	require.Empty(t, matches)
	require.Equal(t, engine.Report{}, rep)
}
