// Package kv defines the flat key-value storage the document store is layered on.
// Every backend stores opaque byte values under string keys and knows nothing
// about collections or records.
package kv

import (
	"context"
	"errors"
	"regexp"
)

// ErrNotFound is returned by Get when the key holds no value
var ErrNotFound = errors.New("kv: key not found")

// ErrInvalidKey is returned when a key contains characters a backend cannot store
var ErrInvalidKey = errors.New("kv: invalid key")

// Backend is the minimal storage contract every backend implements
type Backend interface {
	// Get returns the stored value or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set fully replaces the value stored under key
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes the given keys; keys that do not exist are ignored
	Remove(ctx context.Context, keys ...string) error
	// Clear wipes every key the backend can see, including keys it did not write
	Clear(ctx context.Context) error
	// Keys lists every key currently stored
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateKey rejects empty keys and keys outside [A-Za-z0-9_.-]
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
