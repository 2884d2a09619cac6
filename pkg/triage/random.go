package triage

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform values in [0, 1). It feeds both the vitals
// fluctuation and the ledger tick.
type RandomSource interface {
	Float64() float64
}

// LockedSource guards a *rand.Rand so HTTP handlers and the simulation
// ticker can draw from one generator.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedSource seeds from the clock when seed is zero.
func NewLockedSource(seed int64) *LockedSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
