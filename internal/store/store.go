// Package store layers typed collections on a flat key-value backend. Each
// collection is one JSON array under its own key; every write replaces the
// whole array.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/kv"
	"github.com/anonto42/nano-midea/localstore/internal/metrics"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

// Persisted keys
const (
	KeyUsers          = "users"
	KeyPosts          = "posts"
	KeyComments       = "comments"
	KeyLikes          = "likes"
	KeyMessages       = "messages"
	KeyFriendRequests = "friendRequests"
	KeyNotifications  = "notifications"
	KeyCurrentUser    = "currentUser"
)

// CollectionKeys are the keys holding JSON arrays
var CollectionKeys = []string{
	KeyUsers,
	KeyPosts,
	KeyComments,
	KeyLikes,
	KeyMessages,
	KeyFriendRequests,
	KeyNotifications,
}

// DefinedKeys is the full key set owned by the store: the seven collections plus the session pointer
var DefinedKeys = append(append([]string{}, CollectionKeys...), KeyCurrentUser)

// ErrUnchanged can be returned from a Mutate callback to skip the write
var ErrUnchanged = errors.New("store: unchanged")

// Store owns the backend and one writer lock per key
type Store struct {
	backend kv.Backend
	metrics *metrics.Collector

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithMetrics reports every primitive to c
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) {
		s.metrics = c
	}
}

// New creates a Store on top of backend
func New(backend kv.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying key-value backend
func (s *Store) Backend() kv.Backend {
	return s.backend
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

type heldKeysCtx struct{}

func heldKeys(ctx context.Context) map[string]bool {
	held, _ := ctx.Value(heldKeysCtx{}).(map[string]bool)
	return held
}

// keyRank orders keys for lock acquisition: defined keys first in declaration order, then lexical
func keyRank(keys []string) []string {
	rank := make(map[string]int, len(DefinedKeys))
	for i, k := range DefinedKeys {
		rank[k] = i
	}
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iok := rank[sorted[i]]
		rj, jok := rank[sorted[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}

// Atomically runs fn while holding the writer locks of every key in keys.
// Locks are taken in a fixed order so concurrent compound operations cannot
// deadlock. Mutate calls inside fn on a held key do not lock again.
func (s *Store) Atomically(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	held := heldKeys(ctx)
	next := make(map[string]bool, len(held)+len(keys))
	for k := range held {
		next[k] = true
	}

	var acquired []*sync.Mutex
	for _, k := range keyRank(keys) {
		if next[k] {
			continue
		}
		m := s.keyLock(k)
		m.Lock()
		acquired = append(acquired, m)
		next[k] = true
	}
	defer func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}()

	return fn(context.WithValue(ctx, heldKeysCtx{}, next))
}

// read decodes the value under key into v. Missing or corrupt values leave v
// untouched and report false; the failure is logged, never returned.
func (s *Store) read(ctx context.Context, key string, v any) bool {
	started := time.Now()

	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		s.metrics.Observe(key, "read", metrics.ResultOK, started)
		return false
	}
	if err != nil {
		logger.Warn("collection read failed, using empty value", "key", key, "error", err)
		s.metrics.Observe(key, "read", metrics.ResultRecovered, started)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("collection is not valid JSON, using empty value", "key", key, "error", err)
		s.metrics.Observe(key, "read", metrics.ResultRecovered, started)
		return false
	}

	s.metrics.Observe(key, "read", metrics.ResultOK, started)
	return true
}

// write serializes v and replaces the value under key
func (s *Store) write(ctx context.Context, key string, v any) error {
	started := time.Now()

	data, err := json.Marshal(v)
	if err != nil {
		s.metrics.Observe(key, "write", metrics.ResultError, started)
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "encode "+key)
	}
	if err := s.backend.Set(ctx, key, data); err != nil {
		logger.Error("collection write failed", "key", key, "error", err)
		s.metrics.Observe(key, "write", metrics.ResultError, started)
		return apperrors.Wrap(err, apperrors.ErrCodeStorageWrite, "persist "+key)
	}

	s.metrics.Observe(key, "write", metrics.ResultOK, started)
	return nil
}

// remove deletes keys from the backend
func (s *Store) remove(ctx context.Context, op string, keys ...string) error {
	started := time.Now()
	if err := s.backend.Remove(ctx, keys...); err != nil {
		logger.Error("remove keys failed", "keys", keys, "error", err)
		s.metrics.Observe("*", op, metrics.ResultError, started)
		return apperrors.Wrap(err, apperrors.ErrCodeStorageWrite, "remove keys")
	}
	s.metrics.Observe("*", op, metrics.ResultOK, started)
	return nil
}

// ClearAll removes exactly the store's defined keys and leaves every other key in the backend alone
func (s *Store) ClearAll(ctx context.Context) error {
	return s.Atomically(ctx, DefinedKeys, func(ctx context.Context) error {
		if err := s.remove(ctx, "clear", DefinedKeys...); err != nil {
			return err
		}
		for _, k := range CollectionKeys {
			s.metrics.SetRecords(k, 0)
		}
		logger.Info("store data cleared", "keys", DefinedKeys)
		return nil
	})
}

// Reset wipes the entire backend, including keys the store does not own
func (s *Store) Reset(ctx context.Context) error {
	return s.Atomically(ctx, DefinedKeys, func(ctx context.Context) error {
		started := time.Now()
		if err := s.backend.Clear(ctx); err != nil {
			logger.Error("backend reset failed", "error", err)
			s.metrics.Observe("*", "reset", metrics.ResultError, started)
			return apperrors.Wrap(err, apperrors.ErrCodeStorageWrite, "reset backend")
		}
		s.metrics.Observe("*", "reset", metrics.ResultOK, started)
		for _, k := range CollectionKeys {
			s.metrics.SetRecords(k, 0)
		}
		logger.Info("store backend reset")
		return nil
	})
}

// Stats returns the number of records in each collection
func (s *Store) Stats(ctx context.Context) map[string]int {
	stats := make(map[string]int, len(CollectionKeys))
	for _, k := range CollectionKeys {
		var raw []json.RawMessage
		s.read(ctx, k, &raw)
		stats[k] = len(raw)
	}
	return stats
}
