package repositories

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/store"
)

// newestFirst sorts records by descending timestamp. Records with equal
// timestamps come out in reverse insertion order.
func newestFirst[T any](records []T, ts func(T) time.Time) []T {
	slices.Reverse(records)
	sort.SliceStable(records, func(i, j int) bool {
		return ts(records[i]).After(ts(records[j]))
	})
	return records
}

// oldestFirst sorts records by ascending timestamp, keeping insertion order on ties
func oldestFirst[T any](records []T, ts func(T) time.Time) []T {
	sort.SliceStable(records, func(i, j int) bool {
		return ts(records[i]).Before(ts(records[j]))
	})
	return records
}

// without returns records minus those matching drop, and the number dropped
func without[T any](records []T, drop func(T) bool) ([]T, int) {
	kept := make([]T, 0, len(records))
	for _, rec := range records {
		if !drop(rec) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

// removeWhere deletes matching records from c, skipping the write when nothing matches
func removeWhere[T any](ctx context.Context, c *store.Collection[T], drop func(T) bool) (int, error) {
	removed := 0
	err := c.Mutate(ctx, func(records []T) ([]T, error) {
		var kept []T
		kept, removed = without(records, drop)
		if removed == 0 {
			return nil, store.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
