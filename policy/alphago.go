package policy

import (
	"math"

	"github.com/pkg/errors"
)

const reciprocalTableLen = 128

// unvisitedBonus replaces 1/visits for an unvisited edge: a strong but
// bounded preference scaled by the edge's prior, not an unconditional
// override the way UCT's infinity is.
const unvisitedBonus = 2.0

// AlphaGo is the prior-weighted policy. Each edge scores
//
//	(sumRewards + c*sqrt(totalVisits+1) * prior) / max(visits, 1/bonus)
//
// where the division is served from a precomputed reciprocal table for the
// low visit counts that dominate early search.
type AlphaGo struct {
	explorationConstant float64
	reciprocals         [reciprocalTableLen]float64
}

func NewAlphaGo(explorationConstant float64) (*AlphaGo, error) {
	if explorationConstant <= 0 {
		return nil, errors.Wrapf(ErrExplorationConstant, "got %v", explorationConstant)
	}
	p := &AlphaGo{explorationConstant: explorationConstant}
	p.reciprocals[0] = unvisitedBonus
	for x := 1; x < reciprocalTableLen; x++ {
		p.reciprocals[x] = 1.0 / float64(x)
	}
	return p, nil
}

func (p *AlphaGo) ExplorationConstant() float64 {
	return p.explorationConstant
}

// reciprocal returns 1/x without a division for x < 128, and 2.0 for
// x == 0. Called once per candidate edge per selection.
func (p *AlphaGo) reciprocal(x uint64) float64 {
	if x < reciprocalTableLen {
		return p.reciprocals[x]
	}
	return 1.0 / float64(x)
}

func (p *AlphaGo) ChooseChild(edges []Edge, td *ThreadData) Edge {
	var sum uint64
	for _, e := range edges {
		sum += e.Visits()
	}
	// The +1 stands for the parent's own visit, keeping the coefficient
	// nonzero before any child has been tried.
	exploreCoef := p.explorationConstant * math.Sqrt(float64(sum+1))

	i := td.Select.Pick(len(edges), func(i int) float64 {
		e := edges[i]
		return (e.SumRewards() + exploreCoef*e.Prior()) * p.reciprocal(e.Visits())
	})
	if i < 0 {
		return nil
	}
	return edges[i]
}

// ValidateEvaluations enforces that the evaluator handed back something
// close to a probability distribution over the node's moves: every prior
// non-negative up to rounding, and the sum within 0.1 of 1 when the node
// has any moves at all.
func (p *AlphaGo) ValidateEvaluations(priors []float64) error {
	for _, x := range priors {
		if x < -1e-6 {
			return errors.Wrapf(ErrEvaluation, "move evaluation is %v (must be non-negative)", x)
		}
	}
	if len(priors) >= 1 {
		var sum float64
		for _, x := range priors {
			sum += x
		}
		if math.Abs(sum-1.0) >= 0.1 {
			return errors.Wrapf(ErrEvaluation, "evaluations sum to %v (should sum to 1)", sum)
		}
	}
	return nil
}
