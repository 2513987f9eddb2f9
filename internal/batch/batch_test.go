package batch_test

import (
	"fmt"
	"testing"

	"domainwatch/internal/batch"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func makeDomains(n int) []domain.Name {
	out := make([]domain.Name, n)
	for i := range out {
		out[i] = domain.Name(fmt.Sprintf("host-%03d.example.com", i))
	}

	return out
}

func TestSplitPartitionProperties(t *testing.T) {
	cases := []struct {
		k, size int
	}{
		{k: 0, size: 50},
		{k: 1, size: 50},
		{k: 49, size: 50},
		{k: 50, size: 50},
		{k: 51, size: 50},
		{k: 100, size: 50},
		{k: 101, size: 50},
		{k: 7, size: 3},
		{k: 9, size: 1},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("k=%d size=%d", tc.k, tc.size), func(t *testing.T) {
			domains := makeDomains(tc.k)

			batches, err := batch.Split(domains, tc.size)
			require.NoError(t, err)

			wantBatches := (tc.k + tc.size - 1) / tc.size
			require.Len(t, batches, wantBatches, "batch count must be ceil(k/size)")

			// Every batch respects the size bound, batches are
			// pairwise disjoint, and the union equals the input.
			union := make([]domain.Name, 0, tc.k)
			seen := map[domain.Name]bool{}
			for _, b := range batches {
				require.NotEmpty(t, b)
				require.LessOrEqual(t, len(b), tc.size)
				for _, d := range b {
					require.False(t, seen[d], "domain %s appears in two batches", d)
					seen[d] = true
				}
				union = append(union, b...)
			}
			require.Equal(t, domains, union, "concatenated batches must equal the input")
		})
	}
}

func TestSplitSingleSmallBatch(t *testing.T) {
	batches, err := batch.Split([]domain.Name{"example.com"}, batch.DefaultSize)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
}

func TestSplitInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := batch.Split(makeDomains(3), size)
		require.Error(t, err)
		require.ErrorIs(t, err, serrors.ErrConfig)
	}
}
