package testutil

import (
	"strconv"
	"sync"
	"time"
)

// FixedClock is a settable wall clock for tests.
//
// Pass clock.Now wherever a func() time.Time is expected. Time only moves
// when Advance or Set is called, so relative times resolve the same way
// on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the current time of the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d (backward when d is negative).
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SequenceIDs hands out "<prefix>-1", "<prefix>-2", ... in order.
//
// It stands in for the random request id generator so logs and golden
// output stay byte-identical between runs.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceIDs creates a generator. An empty prefix becomes "req".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.prefix + "-" + strconv.FormatInt(g.seq, 10)
}

// Reset restarts the sequence at 1.
func (g *SequenceIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
