package engine

// Resolution is the outcome of resolving a chain against a grid
type Resolution struct {
	Grid       Grid
	Merged     bool
	ScoreDelta int
	BaseValue  Denomination
	NextValue  Denomination
	Sum        int
	Placed     Denomination
}

// Resolve validates a chain and applies the merge. The input grid is never
// mutated; Resolution.Grid is a new grid on success and the input grid
// otherwise.
//
// A chain merges when the sum of its coins reaches the successor of its
// first coin. Every chain cell is emptied and the first cell receives the
// successor, unless the successor is Collapse, in which case the chain is
// cleared. A single coin never reaches its own successor, so at least two
// coins are needed.
func Resolve(g Grid, chain []Position) Resolution {
	res := Resolution{Grid: g}
	if len(chain) == 0 {
		return res
	}

	res.BaseValue = g.At(chain[0])
	res.NextValue = res.BaseValue.Successor()
	if !validChain(g, chain) {
		return res
	}

	for _, p := range chain {
		res.Sum += int(g.At(p))
	}
	if res.Sum < int(res.NextValue) {
		return res
	}

	next := g.Clone()
	for _, p := range chain {
		next.Set(p, Empty)
	}
	if res.NextValue != Collapse {
		next.Set(chain[0], res.NextValue)
		res.Placed = res.NextValue
	}

	res.Grid = next
	res.Merged = true
	res.ScoreDelta = res.Sum
	return res
}

// validChain guards against chains that did not come from a SelectionTracker
func validChain(g Grid, chain []Position) bool {
	base := g.At(chain[0])
	if !base.IsBase() {
		return false
	}
	seen := make(map[Position]bool, len(chain))
	for i, p := range chain {
		if !g.InBounds(p) || seen[p] || g.At(p) != base {
			return false
		}
		if i > 0 && !IsAdjacent(chain[i-1], p) {
			return false
		}
		seen[p] = true
	}
	return true
}

// Refill applies gravity to every column and tops it up from the preview
// queue. Survivors keep their relative order and settle at the bottom.
// Preview coins enter from the top in draw order, so the oldest draw lands
// directly on the survivors. Under RefillSingle a column draws at most one
// coin and any remaining vacancies stay empty at the top until the next pass.
// It returns the number of coins drawn.
func Refill(g Grid, preview PreviewQueue, src RandomSource, policy RefillPolicy) int {
	rows := g.Rows()
	drawn := 0

	for c := 0; c < g.Columns(); c++ {
		survivors := make([]Denomination, 0, rows)
		for r := 0; r < rows; r++ {
			if g[r][c] != Empty {
				survivors = append(survivors, g[r][c])
			}
		}

		draws := rows - len(survivors)
		if policy == RefillSingle && draws > 1 {
			draws = 1
		}
		if c >= len(preview) {
			draws = 0
		}

		r := rows - 1
		for i := len(survivors) - 1; i >= 0; i-- {
			g[r][c] = survivors[i]
			r--
		}
		for i := 0; i < draws; i++ {
			g[r][c] = preview.Draw(c, src)
			r--
			drawn++
		}
		for ; r >= 0; r-- {
			g[r][c] = Empty
		}
	}

	return drawn
}
