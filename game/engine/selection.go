package engine

// SelectionState is the state of the selection tracker
type SelectionState string

const (
	SelectionEmpty        SelectionState = "empty"
	SelectionAccumulating SelectionState = "accumulating"
)

// SelectionTracker holds the in-progress chain of the current turn.
// Invalid intents are ignored so that continuous gesture input can skip
// over cells it merely passes through.
type SelectionTracker struct {
	state SelectionState
	chain []Position
}

// State returns the tracker state
func (t *SelectionTracker) State() SelectionState {
	if t.state == "" {
		return SelectionEmpty
	}
	return t.state
}

// Begin starts a chain at p. Valid only from Empty and only on an occupied cell.
func (t *SelectionTracker) Begin(g Grid, p Position) bool {
	if t.State() != SelectionEmpty || g.At(p) == Empty {
		return false
	}
	t.state = SelectionAccumulating
	t.chain = []Position{p}
	return true
}

// Extend appends p to the chain if it is unused, adjacent to the last
// accepted cell (diagonals included) and holds the chain's denomination
func (t *SelectionTracker) Extend(g Grid, p Position) bool {
	if t.State() != SelectionAccumulating || len(t.chain) == 0 {
		return false
	}
	if !g.InBounds(p) || t.Contains(p) {
		return false
	}
	if !IsAdjacent(t.chain[len(t.chain)-1], p) {
		return false
	}
	if g.At(p) != g.At(t.chain[0]) {
		return false
	}
	t.chain = append(t.chain, p)
	return true
}

// Complete hands over the finished chain and resets the tracker. From Empty
// it returns an empty chain.
func (t *SelectionTracker) Complete() []Position {
	chain := t.chain
	t.Reset()
	return chain
}

// Reset discards any in-progress chain
func (t *SelectionTracker) Reset() {
	t.state = SelectionEmpty
	t.chain = nil
}

// Chain returns a copy of the current chain
func (t *SelectionTracker) Chain() []Position {
	return append([]Position{}, t.chain...)
}

// Contains reports whether p is already selected
func (t *SelectionTracker) Contains(p Position) bool {
	for _, q := range t.chain {
		if q == p {
			return true
		}
	}
	return false
}

// IsAdjacent reports whether a and b are distinct and at Chebyshev distance 1
func IsAdjacent(a, b Position) bool {
	dr, dc := abs(a.Row-b.Row), abs(a.Column-b.Column)
	return dr <= 1 && dc <= 1 && (dr != 0 || dc != 0)
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
