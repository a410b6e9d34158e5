package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEdge struct {
	visits  uint64
	rewards float64
	prior   float64
}

func (e *stubEdge) Visits() uint64      { return e.visits }
func (e *stubEdge) SumRewards() float64 { return e.rewards }
func (e *stubEdge) Prior() float64      { return e.prior }

func edgesOf(stubs ...*stubEdge) []Edge {
	edges := make([]Edge, len(stubs))
	for i, s := range stubs {
		edges[i] = s
	}
	return edges
}

func TestNewUCT(t *testing.T) {
	t.Run("rejects a zero exploration constant", func(t *testing.T) {
		_, err := NewUCT(0)
		require.ErrorIs(t, err, ErrExplorationConstant,
			"Construction should fail, not clamp")
	})

	t.Run("rejects a negative exploration constant", func(t *testing.T) {
		_, err := NewUCT(-1.5)
		require.ErrorIs(t, err, ErrExplorationConstant,
			"Construction should fail, not clamp")
	})

	t.Run("accepts a positive exploration constant", func(t *testing.T) {
		p, err := NewUCT(1.4)
		require.NoError(t, err)
		require.Equal(t, 1.4, p.ExplorationConstant())
	})
}

func TestUCTChooseChild(t *testing.T) {
	t.Run("returns nil on an empty candidate set", func(t *testing.T) {
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		got := p.ChooseChild(nil, NewThreadData(1))
		require.Nil(t, got, "Empty candidate set should select nothing")
	})

	t.Run("always explores the sole unvisited edge first", func(t *testing.T) {
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		edges := edgesOf(
			&stubEdge{visits: 0, rewards: 0},
			&stubEdge{visits: 5, rewards: 3},
			&stubEdge{visits: 5, rewards: 1},
		)
		for trial := 0; trial < 100; trial++ {
			got := p.ChooseChild(edges, NewThreadData(mix64(uint64(trial))))
			require.Same(t, edges[0], got,
				"The unvisited edge should win with probability 1")
		}
	})

	t.Run("prefers any unvisited edge over visited ones", func(t *testing.T) {
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		edges := edgesOf(
			&stubEdge{visits: 100, rewards: 100}, // mean reward 1.0
			&stubEdge{visits: 0},
			&stubEdge{visits: 2, rewards: 2},
			&stubEdge{visits: 0},
		)
		for trial := 0; trial < 100; trial++ {
			got := p.ChooseChild(edges, NewThreadData(mix64(uint64(trial))))
			require.Zero(t, got.Visits(),
				"An unvisited edge should beat any visited edge's score")
		}
	})

	t.Run("maximizes the UCB1 bound when all edges are visited", func(t *testing.T) {
		c := 1.0
		p, err := NewUCT(c)
		require.NoError(t, err)
		edges := edgesOf(
			&stubEdge{visits: 10, rewards: 5},
			&stubEdge{visits: 20, rewards: 18},
		)

		// Recompute the bound by hand with parent visits = 30.
		score := func(e Edge) float64 {
			n := float64(e.Visits())
			return c*math.Sqrt(math.Log(30)/n) + e.SumRewards()/n
		}
		require.Greater(t, score(edges[1]), score(edges[0]),
			"Test fixture should have a strict maximum")

		got := p.ChooseChild(edges, NewThreadData(3))
		require.Same(t, edges[1], got, "The max-scoring edge should be chosen")
	})

	t.Run("handles an entirely unvisited candidate set", func(t *testing.T) {
		// Every edge scores infinity before ln(0) is ever evaluated.
		p, err := NewUCT(2.0)
		require.NoError(t, err)
		edges := edgesOf(&stubEdge{}, &stubEdge{}, &stubEdge{})
		got := p.ChooseChild(edges, NewThreadData(4))
		require.NotNil(t, got, "Selection should succeed with zero parent visits")
		require.Contains(t, edges, got, "Choice should come from the candidates")
	})

	t.Run("breaks exact stat ties uniformly", func(t *testing.T) {
		const trials = 10000
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		edges := edgesOf(
			&stubEdge{visits: 10, rewards: 10},
			&stubEdge{visits: 10, rewards: 10},
		)
		var first int
		for i := 0; i < trials; i++ {
			if p.ChooseChild(edges, NewThreadData(mix64(uint64(i)))) == edges[0] {
				first++
			}
		}
		// Binomial with p=1/2: mean 5000, sd 50; 300 is a 6-sigma band.
		require.InDelta(t, trials/2, first, 300,
			"Identical stats should make either edge equally likely")
	})

	t.Run("works with a weighted selector as thread state", func(t *testing.T) {
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		td := &ThreadData{Select: NewWeighted(11)}
		edges := edgesOf(
			&stubEdge{visits: 4, rewards: 1},
			&stubEdge{visits: 2, rewards: 2},
		)
		got := p.ChooseChild(edges, td)
		require.Contains(t, edges, got, "Choice should come from the candidates")
	})
}

func TestUCTValidateEvaluations(t *testing.T) {
	t.Run("accepts anything", func(t *testing.T) {
		p, err := NewUCT(1.0)
		require.NoError(t, err)
		require.NoError(t, p.ValidateEvaluations(nil))
		require.NoError(t, p.ValidateEvaluations([]float64{-7.0, 42.0}),
			"UCT ignores priors and should not validate them")
	})
}
