package markov

import "math/rand"

// Counter is the weight type for frequency entries. Persisted counters are
// signed 64-bit.
type Counter = int64

// frequency maps a token (or context key) to a positive weight. Entries
// with non-positive weight are never stored.
type frequency map[string]Counter

func (f frequency) increment(key string) {
	f[key]++
}

// decrement lowers the weight by amount, removing the entry when the
// result is zero or below.
func (f frequency) decrement(key string, amount Counter) {
	count, ok := f[key]
	if !ok {
		return
	}
	if count-amount <= 0 {
		delete(f, key)
		return
	}
	f[key] = count - amount
}

func (f frequency) total() Counter {
	var sum Counter
	for _, count := range f {
		sum += count
	}
	return sum
}

func (f frequency) clone() frequency {
	out := make(frequency, len(f))
	for key, count := range f {
		out[key] = count
	}
	return out
}

// draw picks a weighted random key by scanning a cumulative sum of the
// remaining entries. The caller deletes the drawn key, giving sampling
// without replacement. Drawing from an empty distribution is a programming
// error.
func (f frequency) draw(rng *rand.Rand) string {
	if len(f) == 0 {
		panic("markov: draw from empty frequency distribution")
	}
	pick := rng.Int63n(f.total())
	var cumulative Counter
	for key, count := range f {
		cumulative += count
		if pick < cumulative {
			return key
		}
	}
	panic("markov: cumulative distribution never reached the draw")
}
