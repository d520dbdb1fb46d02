package usage_test

import (
	"sync"
	"testing"

	"github.com/parleykit/parley/pkg/providers/usage"
	"github.com/stretchr/testify/assert"
)

func TestTokenCount_Total(t *testing.T) {
	tc := usage.TokenCount{Input: 100, Output: 50}
	assert.Equal(t, 150, tc.Total())
}

func TestTokenCount_Add(t *testing.T) {
	a := usage.TokenCount{Input: 10, Output: 5}
	b := usage.TokenCount{Input: 1, Output: 2}

	assert.Equal(t, usage.TokenCount{Input: 11, Output: 7}, a.Add(b))
}

func TestTracker_Add_And_Count(t *testing.T) {
	var tr usage.Tracker

	assert.Equal(t, 0, tr.Count())

	tr.Add(usage.TokenCount{Input: 10, Output: 5})
	assert.Equal(t, 1, tr.Count())

	tr.Add(usage.TokenCount{Input: 20, Output: 10})
	assert.Equal(t, 2, tr.Count())
}

func TestTracker_Last_Empty(t *testing.T) {
	var tr usage.Tracker

	tc, ok := tr.Last()
	assert.False(t, ok)
	assert.Equal(t, usage.TokenCount{}, tc)
}

func TestTracker_Last(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{Input: 10, Output: 5})
	tr.Add(usage.TokenCount{Input: 20, Output: 10})

	tc, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, usage.TokenCount{Input: 20, Output: 10}, tc)
}

func TestTracker_Total(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{Input: 10, Output: 5})
	tr.Add(usage.TokenCount{Input: 20, Output: 10})

	total := tr.Total()
	assert.Equal(t, 30, total.Input)
	assert.Equal(t, 15, total.Output)
	assert.Equal(t, 45, total.Total())
}

func TestTracker_Reset(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{Input: 10, Output: 5})
	tr.Reset()

	assert.Equal(t, 0, tr.Count())
	assert.Equal(t, usage.TokenCount{}, tr.Total())
}

func TestTracker_Concurrent_Add(t *testing.T) {
	var tr usage.Tracker

	const goroutines = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			tr.Add(usage.TokenCount{Input: 1, Output: 1})
		}()
	}

	wg.Wait()

	assert.Equal(t, goroutines, tr.Count())

	total := tr.Total()
	assert.Equal(t, goroutines, total.Input)
	assert.Equal(t, goroutines, total.Output)
}
