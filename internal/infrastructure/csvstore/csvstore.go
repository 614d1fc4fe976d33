// Package csvstore persists pipeline artifacts as delimited text files.
// Every store validates decoded rows once at the input boundary and
// reports dropped rows through its logger.
package csvstore

import (
	"math"
	"strconv"
	"strings"
)

// formatFloat renders a numeric cell. NaN encodes as an empty cell so
// spreadsheets and the loaders agree on what "missing" looks like.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseFloat coerces a numeric cell. Thousands separators are stripped;
// an empty or unparseable cell yields NaN, never an error.
func parseFloat(raw string) float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseStat is parseFloat with the stat-column convention: a cell that
// cannot be read counts as zero, not as missing.
func parseStat(raw string) float64 {
	v := parseFloat(raw)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// headerIndex maps lowercased column names to positions.
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// cell returns the named column of a row, or "" when the column is
// absent from the file or the row is short.
func (h headerIndex) cell(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
