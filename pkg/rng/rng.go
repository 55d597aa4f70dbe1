// Package rng is the random number source shared by every stochastic game rule.
package rng

import (
	"math"
	"math/rand/v2"
)

// Source is the sampling primitive used by the game engines.
type Source interface {
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// NormFloat64 returns a standard normal value (mean 0, stddev 1).
	NormFloat64() float64
}

type global struct{}

func (global) Float64() float64     { return rand.Float64() }
func (global) IntN(n int) int       { return rand.IntN(n) }
func (global) NormFloat64() float64 { return rand.NormFloat64() }

// Default returns the process-wide generator. It is safe for concurrent use.
func Default() Source {
	return global{}
}

// Gaussian samples a normal distribution with the given mean and standard deviation.
func Gaussian(src Source, mean, stddev float64) float64 {
	return mean + stddev*src.NormFloat64()
}

// Chance reports whether a uniform draw falls below p.
// p is clamped to [0, 1].
func Chance(src Source, p float64) bool {
	p = math.Max(0, math.Min(1, p))
	return src.Float64() < p
}

// Choice picks one element uniformly. It panics on an empty slice.
func Choice[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
