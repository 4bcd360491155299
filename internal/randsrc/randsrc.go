// Package randsrc defines the abstract random source the scheduler uses for
// jitter, and a default implementation backed by the runtime's
// non-cryptographic PRNG.
//
// Acquisition of the seed itself is a startup concern outside the core; see
// [NewSystem].
package randsrc

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source draws a uniform integer in a half-open range.  Implementations must
// be safe for concurrent use; the core calls it only from the event loop
// goroutine, but tests may substitute a source shared across goroutines.
type Source interface {
	// Intn returns a value in [lo, hi).  It panics if hi <= lo.
	Intn(lo, hi int) int
}

// System is the [Source] implementation used in production.  It wraps
// [math/rand/v2] seeded from the OS CSPRNG so that successive runs of the
// daemon don't share a jitter sequence.
type System struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// type check
var _ Source = (*System)(nil)

// NewSystem returns a [*System] seeded from the OS random source.  It returns
// an error if the seed could not be acquired, which callers should treat as a
// startup error per the daemon's error taxonomy.
func NewSystem() (s *System, err error) {
	var seed [32]byte
	if _, err = crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("acquiring random seed: %w", err)
	}

	s1 := binary.LittleEndian.Uint64(seed[0:8])
	s2 := binary.LittleEndian.Uint64(seed[8:16])

	return &System{rng: rand.New(rand.NewPCG(s1, s2))}, nil
}

// Intn implements the [Source] interface for *System.
func (s *System) Intn(lo, hi int) (n int) {
	if hi <= lo {
		panic(fmt.Sprintf("randsrc: invalid range [%d, %d)", lo, hi))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return lo + s.rng.IntN(hi-lo)
}
