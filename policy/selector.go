package policy

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Selector picks one element out of n by score. Implementations own a
// private generator: cheap to call repeatedly, but only ever from the one
// goroutine that owns it.
type Selector interface {
	// Pick returns the chosen index, or -1 when n == 0.
	Pick(n int, score func(i int) float64) int
}

// TieBreak selects the maximal-scoring element, resolving ties uniformly
// at random in a single streaming pass.
type TieBreak struct {
	rng *rand.Rand
}

func NewTieBreak(seed uint64) *TieBreak {
	return &TieBreak{rng: rand.New(rand.NewSource(seed))}
}

// DefaultTieBreak seeds from the process-wide source, trading
// reproducibility for convenience.
func DefaultTieBreak() *TieBreak {
	return NewTieBreak(rand.Uint64())
}

// Pick tracks the best score seen and a running count of elements tied at
// it; a strictly better score resets the count, an equal score replaces
// the current choice with probability 1/count. Reservoir sampling
// restricted to the argmax class: uniform over whatever set ends up tied
// for the maximum, without materializing it. Deterministic for a fixed
// seed and input order.
func (s *TieBreak) Pick(n int, score func(i int) float64) int {
	choice := -1
	tied := 0
	best := math.Inf(-1)
	for i := 0; i < n; i++ {
		v := score(i)
		if v > best {
			choice = i
			tied = 1
			best = v
		} else if v == best {
			tied++
			if s.rng.Float64() < 1.0/float64(tied) {
				choice = i
			}
		}
	}
	return choice
}

// Weighted samples an element with probability proportional to its
// shifted score. A general-purpose alternative to TieBreak for callers
// that want stochastic selection rather than pure argmax.
type Weighted struct {
	rng *rand.Rand
}

func NewWeighted(seed uint64) *Weighted {
	return &Weighted{rng: rand.New(rand.NewSource(seed))}
}

// DefaultWeighted seeds from the process-wide source.
func DefaultWeighted() *Weighted {
	return NewWeighted(rand.Uint64())
}

// Pick materializes the scores (weighted draws need random access), shifts
// them non-negative and samples by weight. A degenerate weight vector
// falls back to a uniform pick — logged, not failed: a non-empty input
// always yields an element.
func (s *Weighted) Pick(n int, score func(i int) float64) int {
	if n == 0 {
		return -1
	}
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = score(i)
	}
	shift := weightShift(scores)

	var total float64
	for _, v := range scores {
		if w := v + shift; w > 0 {
			total += w
		}
	}
	if total > 0 {
		target := s.rng.Float64() * total
		last := -1
		for i, v := range scores {
			w := v + shift
			if w <= 0 {
				continue
			}
			last = i
			target -= w
			if target < 0 {
				return i
			}
		}
		// Float rounding can leave a sliver of target; the last
		// positive-weight element absorbs it.
		if last >= 0 {
			return last
		}
	}

	log.Warn().
		Int("candidates", n).
		Floats64("scores", scores).
		Msg("weighted selection found no usable weights, picking uniformly")
	return s.rng.Intn(n)
}

// weightShift turns raw scores into usable weights: negate a negative
// minimum, or floor at 0.01 so all-zero scores still carry weight.
func weightShift(scores []float64) float64 {
	min := scores[0]
	for _, v := range scores[1:] {
		if v < min {
			min = v
		}
	}
	if min < 0 {
		return -min
	}
	return 0.01
}
