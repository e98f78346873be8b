package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func TestFixedClock_DoesNotMove(t *testing.T) {
	clock := NewFixedClock(epoch)
	assert.Equal(t, epoch, clock.Now())
	assert.Equal(t, epoch, clock.Now())
}

func TestFixedClock_Advance(t *testing.T) {
	clock := NewFixedClock(epoch)

	clock.Advance(90 * time.Minute)
	assert.Equal(t, epoch.Add(90*time.Minute), clock.Now())

	clock.Advance(-30 * time.Minute)
	assert.Equal(t, epoch.Add(time.Hour), clock.Now())
}

func TestFixedClock_Set(t *testing.T) {
	clock := NewFixedClock(epoch)
	later := epoch.AddDate(0, 1, 0)

	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestFixedClock_ThreadSafe(t *testing.T) {
	clock := NewFixedClock(epoch)
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, epoch.Add(numGoroutines*time.Second), clock.Now())
}

func TestSequenceIDs_Order(t *testing.T) {
	ids := NewSequenceIDs("evt")

	assert.Equal(t, "evt-1", ids.Generate())
	assert.Equal(t, "evt-2", ids.Generate())
	assert.Equal(t, "evt-3", ids.Generate())

	ids.Reset()
	assert.Equal(t, "evt-1", ids.Generate())
}

func TestSequenceIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "req-1", NewSequenceIDs("").Generate())
}

func TestSequenceIDs_ThreadSafe(t *testing.T) {
	ids := NewSequenceIDs("x")
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make([]string, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = ids.Generate()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range results {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, numGoroutines)
}
