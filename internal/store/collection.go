package store

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/metrics"
)

// Collection is a typed view over one JSON array key
type Collection[T any] struct {
	store *Store
	key   string
}

// NewCollection binds a typed collection to key
func NewCollection[T any](s *Store, key string) *Collection[T] {
	return &Collection[T]{store: s, key: key}
}

// Key returns the storage key of the collection
func (c *Collection[T]) Key() string {
	return c.key
}

// All returns every record in stored order. It never fails: a missing or
// unreadable array yields an empty slice.
func (c *Collection[T]) All(ctx context.Context) []T {
	var records []T
	if !c.store.read(ctx, c.key, &records) || records == nil {
		return []T{}
	}
	return records
}

// Put replaces the whole array with records
func (c *Collection[T]) Put(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	if err := c.store.write(ctx, c.key, records); err != nil {
		return err
	}
	c.store.metrics.SetRecords(c.key, len(records))
	return nil
}

// Mutate loads the array, passes it to fn and writes fn's result back, all
// under the collection's writer lock. Returning ErrUnchanged from fn skips the
// write and makes Mutate return nil.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	return c.store.Atomically(ctx, []string{c.key}, func(ctx context.Context) error {
		started := time.Now()
		next, err := fn(c.All(ctx))
		if errors.Is(err, ErrUnchanged) {
			c.store.metrics.Observe(c.key, "mutate", metrics.ResultOK, started)
			return nil
		}
		if err != nil {
			c.store.metrics.Observe(c.key, "mutate", metrics.ResultError, started)
			return err
		}
		return c.Put(ctx, next)
	})
}

// Record is a typed view over a key holding a single JSON object
type Record[T any] struct {
	store *Store
	key   string
}

// NewRecord binds a typed single record to key
func NewRecord[T any](s *Store, key string) *Record[T] {
	return &Record[T]{store: s, key: key}
}

// Get returns the stored record or nil when it is absent or unreadable
func (r *Record[T]) Get(ctx context.Context) *T {
	var v *T
	if !r.store.read(ctx, r.key, &v) {
		return nil
	}
	return v
}

// Put replaces the stored record
func (r *Record[T]) Put(ctx context.Context, v *T) error {
	return r.store.write(ctx, r.key, v)
}

// Remove deletes the record's key
func (r *Record[T]) Remove(ctx context.Context) error {
	return r.store.remove(ctx, "remove", r.key)
}
