package dataflow

import "math/rand"

// Source is the entropy-noise generator widening draws from. Injecting
// it lets tests pin a seed and get reproducible widening decisions
// (spec §9, "random widening").
type Source interface {
	Float64() float64
}

type mathRandSource struct{ r *rand.Rand }

// NewSource returns the default Source, seeded deterministically.
func NewSource(seed int64) Source {
	return &mathRandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *mathRandSource) Float64() float64 { return s.r.Float64() }

// ZeroSource always returns 0, useful for tests that want the
// least-entropy (most aggressive-widening) behavior deterministically.
type ZeroSource struct{}

func (ZeroSource) Float64() float64 { return 0 }
