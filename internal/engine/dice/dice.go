package dice

import "math/rand/v2"

const Faces = 6

// Source is the randomness behind a roll. Intn returns a value in [0, n).
type Source interface {
	Intn(n int) int
}

type defaultSource struct{}

func (defaultSource) Intn(n int) int { return rand.IntN(n) }

// Default draws from the process-wide generator. Nothing is seeded or stored,
// so successive rolls are independent.
var Default Source = defaultSource{}

// Roll returns a uniformly random face in [1, Faces].
func Roll(src Source) int {
	if src == nil {
		src = Default
	}
	return src.Intn(Faces) + 1
}

// Fixed replays the given values in order and wraps around. Test helper for
// engines that take a Source.
type Fixed struct {
	Values []int
	next   int
}

func (f *Fixed) Intn(n int) int {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v % n
}
