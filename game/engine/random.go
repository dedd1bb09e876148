package engine

import "math/rand/v2"

// RandomSource supplies uniform draws. Inject a seeded source for deterministic play.
type RandomSource interface {
	IntN(n int) int
}

// runtimeSource draws from the auto-seeded math/rand/v2 generator
type runtimeSource struct{}

func (runtimeSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns the process-wide random source
func DefaultSource() RandomSource { return runtimeSource{} }

// seededSource is replicable (tests, analysis, seeded configs)
type seededSource struct{ r *rand.Rand }

// NewSeededSource returns a deterministic source for the given seed
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSource) IntN(n int) int { return s.r.IntN(n) }

// RandomDenomination draws a uniformly random base denomination
func RandomDenomination(src RandomSource) Denomination {
	return BaseDenominations[src.IntN(len(BaseDenominations))]
}
