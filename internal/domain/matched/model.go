// Package matched joins one transfer event with the performance records
// found on either side of it.
package matched

import (
	"context"

	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/domain/transfer"
)

// Transfer is the terminal artifact of the matching stage: one row per
// transfer event, with zero, one or two performance records attached.
type Transfer struct {
	Event  transfer.Event
	Before *performance.Record
	After  *performance.Record

	// Similarity scores of the accepted candidates, 100 for exact hits,
	// 0 where no record was found.
	BeforeScore int
	AfterScore  int
}

func (t Transfer) HasBefore() bool { return t.Before != nil }
func (t Transfer) HasAfter() bool  { return t.After != nil }
func (t Transfer) HasBoth() bool   { return t.Before != nil && t.After != nil }

// Partial reports exactly one side matched.
func (t Transfer) Partial() bool {
	return t.HasBefore() != t.HasAfter()
}

// Unmatched reports neither side matched.
func (t Transfer) Unmatched() bool {
	return !t.HasBefore() && !t.HasAfter()
}

// Change is an after-minus-before delta for one stat, defined only on
// complete matches.
type Change struct {
	Name  string
	Delta float64
}

// Changes returns the per-stat deltas for a complete match, in the
// performance schema's column order. Incomplete matches return nil.
func (t Transfer) Changes() []Change {
	if !t.HasBoth() {
		return nil
	}

	before := t.Before.StatColumns()
	after := t.After.StatColumns()
	out := make([]Change, 0, len(before))
	for i := range before {
		out = append(out, Change{Name: before[i].Name, Delta: after[i].Value - before[i].Value})
	}
	return out
}

// Repository persists the three disjoint partitions of a matching run.
type Repository interface {
	SaveAll(ctx context.Context, rows []Transfer) error
	SaveComplete(ctx context.Context, rows []Transfer) error
	SaveUnmatched(ctx context.Context, rows []Transfer) error
	LoadComplete(ctx context.Context) ([]Transfer, error)
}
