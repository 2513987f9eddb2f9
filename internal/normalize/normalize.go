// Package normalize cleans and validates raw domain strings before they are
// batched and queried. Invalid entries are dropped, not errored: a bad line
// in the input list must never abort the run.
package normalize

import (
	"context"
	"sort"
	"strings"

	"domainwatch/pkg/domain"
	"domainwatch/pkg/logger"

	"go.uber.org/zap"
)

// Clean lowercases and trims a raw domain string, strips a leading "www."
// prefix and any trailing dots. It performs no validation.
func Clean(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimRight(d, ".")

	return d
}

// IsValid reports whether d is a syntactically valid domain name.
//
// A valid domain has at least two labels separated by dots. Each label is
// 1-63 characters of ASCII letters, digits, or hyphens, and must not start
// or end with a hyphen. The top-level label must be letters only and at
// least two characters long.
func IsValid(d string) bool {
	if d == "" || len(d) > 253 {
		return false
	}
	if strings.ContainsAny(d, " \t") {
		return false
	}

	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return false
	}

	for i, label := range labels {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}

		isTLD := i == len(labels)-1
		if isTLD && len(label) < 2 {
			return false
		}

		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= '0' && c <= '9':
				if isTLD {
					return false // TLD must be letters only.
				}
			case c == '-':
				if isTLD {
					return false
				}
			default:
				return false
			}
		}
	}

	return true
}

// Normalize cleans, validates, and deduplicates the raw input list into a
// sorted set of domain names. Rejected entries are logged at debug level and
// counted in the second return value. Sorting gives the batcher a stable,
// deterministic iteration order.
func Normalize(ctx context.Context, raw []string) ([]domain.Name, int) {
	seen := make(map[domain.Name]struct{}, len(raw))
	rejected := 0

	for _, r := range raw {
		d := Clean(r)
		if !IsValid(d) {
			rejected++
			logger.Debug(ctx, "dropping invalid domain", zap.String("raw", r))

			continue
		}

		seen[domain.Name(d)] = struct{}{}
	}

	out := make([]domain.Name, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, rejected
}
