// Package searcher drives parallel Monte Carlo tree search playouts: a
// pool of worker goroutines repeatedly descends the shared tree through a
// selection policy, expands leaves through the client's evaluator, and
// backs rewards up the traversed edges.
package searcher

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"mcts/atomics"
	"mcts/game"
	"mcts/policy"
	"mcts/tree"
)

// DefaultVirtualLoss is the reward penalty charged to an edge while a
// worker is still traversing it.
const DefaultVirtualLoss = 1.0

type Option func(*Searcher)

func WithGoroutines(goroutines int) Option {
	return func(s *Searcher) {
		if goroutines > 0 {
			s.goroutines = goroutines
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(s *Searcher) {
		if episodes > 0 {
			s.episodes = episodes
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(s *Searcher) {
		if duration > 0 {
			s.duration = duration
		}
	}
}

func WithVirtualLoss(loss float64) Option {
	return func(s *Searcher) {
		if loss >= 0 {
			s.virtualLoss = loss
		}
	}
}

// WithSeed makes the whole search deterministic for a single goroutine,
// and per-worker deterministic otherwise: worker i selects with a stream
// derived from seed and i.
func WithSeed(seed uint64) Option {
	return func(s *Searcher) {
		s.seed = seed
		s.seeded = true
	}
}

func WithMetrics() Option {
	return func(s *Searcher) {
		s.metrics = NewMetricsCollector()
	}
}

// Searcher owns one search's configuration and its tree. The policy and
// evaluator are shared read-only across workers; each worker gets private
// selection state derived from the base seed.
type Searcher struct {
	goroutines  int
	episodes    int
	duration    time.Duration
	virtualLoss float64
	seed        uint64
	seeded      bool

	policy    policy.TreePolicy
	evaluator game.Evaluator
	metrics   MetricsCollector

	root      *tree.Node
	rootState game.State

	failed  atomics.Bool
	failMu  sync.Mutex
	failure error
}

func New(p policy.TreePolicy, e game.Evaluator, options ...Option) (*Searcher, error) {
	if p == nil {
		return nil, errors.New("searcher: nil tree policy")
	}
	if e == nil {
		return nil, errors.New("searcher: nil evaluator")
	}
	s := &Searcher{
		goroutines:  1,
		virtualLoss: DefaultVirtualLoss,
		policy:      p,
		evaluator:   e,
		metrics:     NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(s)
	}
	if s.episodes <= 0 && s.duration <= 0 {
		return nil, errors.New("searcher: must specify search episodes or duration")
	}
	return s, nil
}

// Run builds a fresh tree rooted at state and executes playouts until the
// episode count or time budget is exhausted. An evaluator contract
// violation stops the search and is returned; the tree built up to that
// point stays queryable.
func (s *Searcher) Run(state game.State) (SearchMetrics, error) {
	root, _, err := s.expand(state)
	if err != nil {
		return SearchMetrics{}, err
	}
	s.root = root
	s.rootState = state
	s.failure = nil
	s.failed.Store(false)

	base := s.seed
	if !s.seeded {
		base = rand.Uint64()
	}

	log.Debug().
		Int("goroutines", s.goroutines).
		Int("episodes", s.episodes).
		Dur("duration", s.duration).
		Msg("starting search")

	s.metrics.Start()
	if s.episodes > 0 {
		s.iterate(base)
	} else {
		s.countdown(base)
	}
	return s.metrics.Complete(), s.failure
}

func (s *Searcher) iterate(base uint64) {
	tasks := make(chan struct{}, s.episodes)
	for i := 0; i < s.episodes; i++ {
		tasks <- struct{}{}
	}
	close(tasks)

	var wg sync.WaitGroup
	for i := 0; i < s.goroutines; i++ {
		wg.Add(1)
		go func(stream uint64) {
			defer wg.Done()

			td := policy.NewThreadData(deriveSeed(base, stream))
			for range tasks {
				if s.failed.Load() {
					return
				}
				if err := s.simulate(td); err != nil {
					s.fail(err)
					return
				}
				s.metrics.AddEpisode()
			}
		}(uint64(i))
	}
	wg.Wait()
}

func (s *Searcher) countdown(base uint64) {
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < s.goroutines; i++ {
		wg.Add(1)
		go func(stream uint64) {
			defer wg.Done()

			td := policy.NewThreadData(deriveSeed(base, stream))
			for {
				select {
				case <-done:
					return
				default:
					if s.failed.Load() {
						return
					}
					if err := s.simulate(td); err != nil {
						s.fail(err)
						return
					}
					s.metrics.AddEpisode()
				}
			}
		}(uint64(i))
	}

	<-time.After(s.duration)
	close(done)
	wg.Wait()
}

// simulate runs one playout: descend by policy under virtual loss, expand
// the first never-visited edge, back the leaf value up the path.
func (s *Searcher) simulate(td *policy.ThreadData) error {
	node := s.root
	state := s.rootState
	var path []*tree.Edge
	var value float64

	for {
		if node.IsTerminal() {
			value = node.Value()
			break
		}
		chosen := s.policy.ChooseChild(node.PolicyEdges(), td)
		if chosen == nil {
			// Only possible on an empty candidate set, which IsTerminal
			// already filtered; treat it like a terminal playout.
			value = node.Value()
			break
		}
		edge := chosen.(*tree.Edge)
		edge.ApplyLoss(s.virtualLoss)
		path = append(path, edge)

		state = state.Play(edge.Move())
		child := edge.Child()
		if child == nil {
			expanded, leafValue, err := s.expand(state)
			if err != nil {
				return err
			}
			// Losing the install race means another worker expanded the
			// same state first; this playout still backs up its own
			// evaluation of it.
			edge.SetChild(expanded)
			value = leafValue
			s.metrics.AddExpansion()
			break
		}
		node = child
	}

	for _, e := range path {
		e.Backup(value, s.virtualLoss)
	}
	return nil
}

func (s *Searcher) expand(state game.State) (*tree.Node, float64, error) {
	moves := state.LegalMoves()
	priors, value := s.evaluator.Evaluate(state, moves)
	if err := s.policy.ValidateEvaluations(priors); err != nil {
		return nil, 0, err
	}
	return tree.NewNode(state.Player(), moves, priors, value), value, nil
}

func (s *Searcher) fail(err error) {
	s.failMu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.failMu.Unlock()
	s.failed.Store(true)
}

// Root exposes the search tree for inspection.
func (s *Searcher) Root() *tree.Node {
	return s.root
}

// BestMove returns the root move with the most visits (the robust-child
// criterion). ok is false before any search has run or at a terminal
// root.
func (s *Searcher) BestMove() (move game.Move, ok bool) {
	if s.root == nil || s.root.IsTerminal() {
		return nil, false
	}
	return mostVisited(s.root).Move(), true
}

// PrincipalVariation walks the most-visited edge from the root for at
// most limit steps, stopping at the search frontier.
func (s *Searcher) PrincipalVariation(limit int) []game.Move {
	var pv []game.Move
	node := s.root
	for node != nil && !node.IsTerminal() && len(pv) < limit {
		best := mostVisited(node)
		if best.Visits() == 0 {
			break
		}
		pv = append(pv, best.Move())
		node = best.Child()
	}
	return pv
}

func mostVisited(node *tree.Node) *tree.Edge {
	edges := node.Edges()
	best := edges[0]
	for _, e := range edges[1:] {
		if e.Visits() > best.Visits() {
			best = e
		}
	}
	return best
}

// deriveSeed mixes the base seed and a worker's stream id through a
// SplitMix64 finalizer so workers select with decorrelated generators.
func deriveSeed(base, stream uint64) uint64 {
	x := base ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
