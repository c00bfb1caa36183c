package markov

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyIncrementDecrement(t *testing.T) {
	f := make(frequency)
	f.increment("a")
	f.increment("a")
	f.increment("b")
	assert.Equal(t, Counter(2), f["a"])
	assert.Equal(t, Counter(3), f.total())

	f.decrement("a", 1)
	assert.Equal(t, Counter(1), f["a"])

	// Hitting zero (or below) removes the entry entirely.
	f.decrement("a", 5)
	assert.NotContains(t, f, "a")
	f.decrement("b", 1)
	assert.Empty(t, f)

	// Decrementing an absent key is a no-op.
	f.decrement("ghost", 1)
	assert.Empty(t, f)
}

func TestFrequencyDrawWithoutReplacementIsExhaustive(t *testing.T) {
	f := frequency{"a": 1, "b": 10, "c": 100}
	rng := testRand()

	remaining := f.clone()
	seen := make(map[string]bool)
	for len(remaining) > 0 {
		key := remaining.draw(rng)
		assert.False(t, seen[key], "key %q drawn twice", key)
		seen[key] = true
		delete(remaining, key)
	}
	assert.Len(t, seen, 3)
	// The source distribution is untouched.
	assert.Equal(t, Counter(111), f.total())
}

func TestFrequencyDrawFollowsWeights(t *testing.T) {
	f := frequency{"rare": 1, "common": 99}
	rng := testRand()

	counts := map[string]int{}
	for range 1000 {
		counts[f.draw(rng)]++
	}
	assert.Greater(t, counts["common"], counts["rare"])
}

func TestFrequencyDrawEmptyPanics(t *testing.T) {
	assert.Panics(t, func() {
		frequency{}.draw(testRand())
	})
}
