package models

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time
type Clock func() time.Time

// IDGenerator derives record ids from the creation timestamp in Unix
// milliseconds. Ids are strictly increasing: two records created in the same
// millisecond get consecutive values.
type IDGenerator struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

// NewIDGenerator creates a generator; a nil clock means time.Now
func NewIDGenerator(now Clock) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id and the timestamp it was derived from, at
// millisecond precision
func (g *IDGenerator) Next() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UTC().Truncate(time.Millisecond)
	ms := ts.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10), ts
}
