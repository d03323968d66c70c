package brackets

import "unicode/utf16"

// Source yields floats in [0,1], both ends included. Implementations must be
// deterministic.
type Source interface {
	Next() float64
}

// SeededStream is a 32-bit xorshift generator seeded from a string.
// The same seed produces the same sequence as the draws stored by the
// previous platform, so stored seeds stay replayable.
type SeededStream struct {
	state uint32
}

func NewSeededStream(seed string) *SeededStream {
	var h uint32
	for _, unit := range utf16.Encode([]rune(seed)) {
		h = h*31 + uint32(unit)
	}
	return &SeededStream{state: h}
}

// Next returns the next float of the stream. The state is divided by
// 0xffffffff, so 1.0 is reachable; callers scaling it to an index must clamp.
func (s *SeededStream) Next() float64 {
	h := s.state
	h ^= h >> 13
	h ^= h << 17
	h ^= h >> 5
	s.state = h
	return float64(h) / 0xffffffff
}

// Shuffle returns a Fisher-Yates permutation of items. items is not modified.
func Shuffle[T any](items []T, rng Source) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Next() * float64(i+1))
		if j > i {
			// Next can return exactly 1.0
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}
