// Package report persists the final match list: a flat file with one matched
// domain per line, in completion order. The file is written after drain so
// partial results from an interrupted run still land on disk.
package report

import (
	"fmt"
	"os"
	"strings"

	"domainwatch/pkg/domain"
)

// Write stores the matched domains at path, one per line. An empty match
// list still produces the file, so downstream consumers can distinguish
// "no matches" from "never ran".
func Write(path string, matches []domain.Match) error {
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(m.Domain.String())
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("could not write results: %w", err)
	}

	return nil
}
