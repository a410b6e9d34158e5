// Package game declares the abstractions a client supplies to make its
// game searchable.
package game

// Move is opaque to the search; policies only ever see the statistics
// attached to it.
type Move any

// State is one position in the client's game. State is immutable from the
// search's point of view: Play returns the successor, the receiver is
// never modified. Multiple workers hold independent State values at once.
type State interface {
	// Player identifies whose turn it is at this state.
	Player() string

	// LegalMoves lists the candidate moves. An empty slice marks a
	// terminal state.
	LegalMoves() []Move

	Play(Move) State
}

// Evaluator scores a newly reached state: one prior per legal move, in
// order, plus a value estimate used as the playout reward. Prior-weighted
// policies require the priors to approximate a probability distribution;
// see TreePolicy.ValidateEvaluations.
//
// Evaluate is called concurrently from every worker and must be safe for
// that.
type Evaluator interface {
	Evaluate(s State, moves []Move) (priors []float64, value float64)
}

// EvaluateFunc adapts a plain function to the Evaluator interface.
type EvaluateFunc func(State, []Move) ([]float64, float64)

func (f EvaluateFunc) Evaluate(s State, moves []Move) ([]float64, float64) {
	return f(s, moves)
}
