package resonance

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source abstracts the random draws so tests can pin exact outcomes.
type Source interface {
	// IntN returns a uniform int in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// NewSource returns a seed-deterministic source. Not safe for
// concurrent use; see NewLockedSource.
func NewSource(seed int64) Source {
	return &mathSource{rng: rand.New(rand.NewSource(seed))}
}

type mathSource struct {
	rng *rand.Rand
}

func (s *mathSource) IntN(n int) int   { return s.rng.Intn(n) }
func (s *mathSource) Float64() float64 { return s.rng.Float64() }

// NewLockedSource returns a mutex-guarded source for transports that
// may dispatch tool calls concurrently.
func NewLockedSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
