// Package policy implements the selection side of a parallel Monte Carlo
// tree search: given the shared statistics of the candidate edges at a
// node, decide which edge the current playout descends into.
//
// Policies never write to the tree. Edge counters are mutated elsewhere
// (backpropagation, virtual loss) under atomic discipline, concurrently
// with the reads performed here, so a policy must tolerate observing
// visits and sumRewards of the same edge at different points in their
// update history. The only mutable state a policy touches is the calling
// worker's private ThreadData.
package policy

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

var (
	// ErrExplorationConstant reports a non-positive exploration constant
	// at construction. A search must not start with invalid tuning.
	ErrExplorationConstant = errors.New("exploration constant must be positive")

	// ErrEvaluation reports priors from the client evaluator that do not
	// approximate a probability distribution. This is a bug in the
	// evaluator, not a transient condition.
	ErrEvaluation = errors.New("invalid move evaluations")
)

// Edge is the read-only view of one candidate move's shared statistics.
// Visits only ever increases and SumRewards only accumulates; there is no
// atomic snapshot across the pair.
type Edge interface {
	Visits() uint64
	SumRewards() float64
	// Prior is the evaluation assigned when the edge was created,
	// immutable afterwards. UCT ignores it.
	Prior() float64
}

// TreePolicy picks which child edge a playout descends into.
//
// Implementations are immutable after construction and shared read-only
// across all workers.
type TreePolicy interface {
	// ChooseChild scores every candidate and returns the winner, breaking
	// ties through the worker's selector. The slice may be iterated more
	// than once within a call; callers must not reorder it mid-call
	// (concurrent updates to the edges' own counters are expected and
	// fine). Returns nil only for an empty candidate set — deciding
	// whether that is an error is the caller's business.
	ChooseChild(edges []Edge, td *ThreadData) Edge

	// ValidateEvaluations checks the priors the evaluator produced for a
	// newly expanded node. Policies that never read priors accept
	// anything.
	ValidateEvaluations(priors []float64) error
}

// ThreadData is one worker's private selection state. It is exclusively
// owned by that worker for its lifetime: no locking, no sharing.
type ThreadData struct {
	Select Selector
}

// NewThreadData seeds the worker's tie-breaking selector explicitly.
// Searches that need reproducibility must come through here.
func NewThreadData(seed uint64) *ThreadData {
	return &ThreadData{Select: NewTieBreak(seed)}
}

// DefaultThreadData draws a seed from the process-wide source. Convenience
// for the outermost construction boundary only; never used on a hot path
// and never in tests.
func DefaultThreadData() *ThreadData {
	return NewThreadData(rand.Uint64())
}
