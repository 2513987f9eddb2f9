// Package intel defines the abstraction for compromise-intelligence
// providers. Implementations query one batch of domains per call and report
// which of them are compromise-associated.
package intel

import (
	"context"

	"domainwatch/pkg/domain"
)

// Result holds the outcome of one batch query. Domains absent from Matches
// were queried and reported clean.
type Result struct {
	// Matches lists the queried domains the provider reported under at
	// least one match category, with the raw record retained.
	Matches []domain.Match
	// Attempts is the number of requests made for this batch, including
	// retries.
	Attempts int
}

// Client is the abstraction for compromise-intelligence providers. A client
// owns its retry policy: CheckBatch returns only after the batch succeeded,
// failed fatally, exhausted its retry budget, or was cancelled.
//
//go:generate mockgen -package mockintel -source=interface.go -destination=mock/mockintel.go *
type Client interface {
	// CheckBatch queries the provider for the given batch of domains.
	// Errors carry a serrors kind: ErrTransient after retry exhaustion,
	// ErrFatal for unretryable conditions. Cancellation surfaces the
	// context error unchanged.
	CheckBatch(ctx context.Context, domains []domain.Name) (Result, error)
}
