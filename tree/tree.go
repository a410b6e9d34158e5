// Package tree holds the shared search tree: nodes, their candidate
// edges, and the atomic per-edge counters every worker reads and writes
// without locks.
package tree

import (
	"sync/atomic"

	"mcts/atomics"
	"mcts/game"
	"mcts/policy"
)

// Edge is one candidate move out of a node, annotated with the statistics
// selection policies score on. The move and prior are fixed at creation;
// visits and sumRewards accumulate under atomic discipline from any
// worker, so readers may observe the two fields at different points in
// their histories.
type Edge struct {
	move  game.Move
	prior float64

	visits     atomics.Uint64
	sumRewards atomics.Float64
	child      atomic.Pointer[Node]
}

func (e *Edge) Move() game.Move { return e.move }

func (e *Edge) Visits() uint64 { return e.visits.Load() }

func (e *Edge) SumRewards() float64 { return e.sumRewards.Load() }

func (e *Edge) Prior() float64 { return e.prior }

// Child returns the node this edge leads to, or nil while the edge has
// never been expanded.
func (e *Edge) Child() *Node { return e.child.Load() }

// SetChild installs the expanded node exactly once. The loser of a
// concurrent expansion race gets false and should descend into the
// winner's node instead.
func (e *Edge) SetChild(n *Node) bool {
	return e.child.CompareAndSwap(nil, n)
}

// ApplyLoss charges a virtual loss: the traversing worker counts its
// visit up front and pays a reward penalty, steering concurrent workers
// away from the same line until Backup settles the playout.
func (e *Edge) ApplyLoss(loss float64) {
	e.visits.Add(1)
	e.sumRewards.Add(-loss)
}

// Backup refunds the virtual loss and records the playout reward. The
// visit charged by ApplyLoss becomes the real one, so the counter is
// never decremented.
func (e *Edge) Backup(reward, loss float64) {
	e.sumRewards.Add(reward + loss)
}

// Node owns the candidate edges out of one state. Edges are created once
// at expansion and never added to or reordered afterwards, which is what
// lets policies re-iterate the slice within a selection call.
type Node struct {
	player string
	value  float64
	edges  []*Edge
	view   []policy.Edge
}

// NewNode builds a node for a state whose legal moves and priors have
// just been evaluated. priors may be nil when the policy in use ignores
// them; otherwise it must be move-aligned. value is the evaluator's
// estimate for the state, reused as the reward whenever a playout ends
// here.
func NewNode(player string, moves []game.Move, priors []float64, value float64) *Node {
	n := &Node{
		player: player,
		value:  value,
		edges:  make([]*Edge, len(moves)),
		view:   make([]policy.Edge, len(moves)),
	}
	for i, m := range moves {
		e := &Edge{move: m}
		if priors != nil {
			e.prior = priors[i]
		}
		n.edges[i] = e
		n.view[i] = e
	}
	return n
}

func (n *Node) Player() string { return n.player }

func (n *Node) Value() float64 { return n.value }

func (n *Node) Edges() []*Edge { return n.edges }

// PolicyEdges is the read-only view handed to selection. Built once at
// construction so the hot path never allocates.
func (n *Node) PolicyEdges() []policy.Edge { return n.view }

// IsTerminal reports whether the state this node was built from had no
// legal moves.
func (n *Node) IsTerminal() bool { return len(n.edges) == 0 }
