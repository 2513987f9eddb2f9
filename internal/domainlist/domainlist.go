// Package domainlist reads the raw domain list from disk. Two layouts are
// accepted: a JSON array of strings (the historical format) or plain text
// with one domain per line. Entries are returned raw; cleaning and
// validation belong to the normalizer.
package domainlist

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"domainwatch/pkg/logger"

	"go.uber.org/zap"
)

// Read loads the raw domain strings from the file at path. Non-string JSON
// entries are skipped with a warning rather than failing the run.
func Read(ctx context.Context, path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read domain list: %w", err)
	}

	trimmed := bytes.TrimLeftFunc(b, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return readJSON(ctx, b)
	}

	return readLines(b)
}

func readJSON(ctx context.Context, b []byte) ([]string, error) {
	var entries []any
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("could not parse domain list: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		s, ok := e.(string)
		if !ok {
			logger.Warn(ctx, "skipping non-string domain entry", zap.Any("entry", e))

			continue
		}
		out = append(out, s)
	}

	return out, nil
}

func readLines(b []byte) ([]string, error) {
	var out []string

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not scan domain list: %w", err)
	}

	return out, nil
}
