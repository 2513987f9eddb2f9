// Package batch partitions the normalized domain set into the fixed-size
// chunks the intelligence API accepts per request.
package batch

import (
	"domainwatch/pkg/domain"
	"domainwatch/pkg/serrors"
)

// DefaultSize is the maximum number of domains per API request.
const DefaultSize = 50

// Split partitions domains into contiguous batches of at most size elements.
// The partition is exhaustive and disjoint; the last batch holds the
// remainder. The input order is preserved, so a sorted input yields a
// deterministic partition. Fails only when size is not positive.
func Split(domains []domain.Name, size int) ([][]domain.Name, error) {
	if size <= 0 {
		return nil, serrors.With(serrors.ErrConfig, "batch size must be positive, got %d", size)
	}

	if len(domains) == 0 {
		return nil, nil
	}

	batches := make([][]domain.Name, 0, (len(domains)+size-1)/size)
	for start := 0; start < len(domains); start += size {
		end := min(start+size, len(domains))
		batches = append(batches, domains[start:end:end])
	}

	return batches, nil
}
