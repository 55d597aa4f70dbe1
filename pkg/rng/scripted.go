package rng

// Scripted replays fixed values. Once a queue is exhausted the fallback
// value for that method is returned. Useful for deterministic tests.
type Scripted struct {
	Floats []float64
	Ints   []int
	Norms  []float64

	FallbackFloat float64
	FallbackInt   int
	FallbackNorm  float64
}

var _ Source = (*Scripted)(nil)

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return s.FallbackFloat
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// IntN returns the next scripted int reduced modulo n.
func (s *Scripted) IntN(n int) int {
	v := s.FallbackInt
	if len(s.Ints) > 0 {
		v = s.Ints[0]
		s.Ints = s.Ints[1:]
	}
	if v < 0 {
		v = -v
	}
	return v % n
}

func (s *Scripted) NormFloat64() float64 {
	if len(s.Norms) == 0 {
		return s.FallbackNorm
	}
	v := s.Norms[0]
	s.Norms = s.Norms[1:]
	return v
}
