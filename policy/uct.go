package policy

import (
	"math"

	"github.com/pkg/errors"
)

// UCT scores children with the classic UCB1 bound:
//
//	c * sqrt(ln(parentVisits)/visits) + sumRewards/visits
//
// The first term rewards under-explored edges, the second is the empirical
// mean reward. Priors are stored on edges but never read here.
type UCT struct {
	explorationConstant float64
}

func NewUCT(explorationConstant float64) (*UCT, error) {
	if explorationConstant <= 0 {
		return nil, errors.Wrapf(ErrExplorationConstant, "got %v", explorationConstant)
	}
	return &UCT{explorationConstant: explorationConstant}, nil
}

func (p *UCT) ExplorationConstant() float64 {
	return p.explorationConstant
}

// ChooseChild sums the siblings' visit counts as the parent's effective
// visit count — there is no separately tracked parent counter, so the sum
// can read transiently low while other workers are mid-update. The
// eventual-consistency model of the search accepts that.
func (p *UCT) ChooseChild(edges []Edge, td *ThreadData) Edge {
	var parentVisits uint64
	for _, e := range edges {
		parentVisits += e.Visits()
	}

	i := td.Select.Pick(len(edges), func(i int) float64 {
		e := edges[i]
		visits := e.Visits()
		// An unvisited edge always beats a visited one. When no sibling
		// has been visited at all, every candidate takes this branch and
		// ln(0) is never evaluated.
		if visits == 0 {
			return math.Inf(1)
		}
		explore := math.Sqrt(math.Log(float64(parentVisits)) / float64(visits))
		mean := e.SumRewards() / float64(visits)
		return p.explorationConstant*explore + mean
	})
	if i < 0 {
		return nil
	}
	return edges[i]
}

// ValidateEvaluations accepts anything: UCT never reads priors.
func (p *UCT) ValidateEvaluations([]float64) error {
	return nil
}
