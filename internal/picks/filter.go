package picks

import "math/rand"

// Sampler draws an unordered subset of at most n symbols from a pool. It only
// bounds how much scoring work a run does; ranking happens afterwards on
// whatever was sampled.
type Sampler interface {
	Sample(symbols []string, n int) []string
}

// randomSampler shuffles with its own rand source so tests can seed it
type randomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler creates a sampler backed by the given seed
func NewRandomSampler(seed int64) Sampler {
	return &randomSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSampler) Sample(symbols []string, n int) []string {
	if n <= 0 || len(symbols) <= n {
		return symbols
	}

	shuffled := make([]string, len(symbols))
	copy(shuffled, symbols)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n]
}
