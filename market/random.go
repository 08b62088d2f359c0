package market

import "math/rand"

// Source yields uniform draws in [0,1).
type Source interface {
	Float64() float64
}

// NewSeededSource returns a deterministic source. Two sources built from the
// same seed produce identical sequences.
func NewSeededSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// SequenceSource replays a fixed list of draws and then repeats the last one.
// An empty sequence always yields 0.5.
type SequenceSource struct {
	Values []float64
	pos    int
}

func (s *SequenceSource) Float64() float64 {
	if len(s.Values) == 0 {
		return 0.5
	}
	if s.pos >= len(s.Values) {
		return s.Values[len(s.Values)-1]
	}
	v := s.Values[s.pos]
	s.pos++
	return v
}

// ConstSource always returns the same draw. ConstSource(0.5) makes every
// noise term zero.
type ConstSource float64

func (c ConstSource) Float64() float64 { return float64(c) }
