package fallback

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// Picker chooses an index in [0, n). n is always at least 1.
type Picker interface {
	Pick(n int) int
}

// RandomPicker draws uniformly from a seeded PCG source.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker seeds the source; a zero seed draws one from the runtime.
func NewRandomPicker(seed uint64) *RandomPicker {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPicker) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// RoundRobinPicker cycles through candidates in order. The counter is shared
// across modes.
type RoundRobinPicker struct {
	next atomic.Uint64
}

func NewRoundRobinPicker() *RoundRobinPicker {
	return &RoundRobinPicker{}
}

func (p *RoundRobinPicker) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return int((p.next.Add(1) - 1) % uint64(n))
}

// FixedPicker always returns the same index, clamped to range. Useful in tests.
type FixedPicker int

func (f FixedPicker) Pick(n int) int {
	i := int(f)
	if i < 0 || i >= n {
		return 0
	}
	return i
}
