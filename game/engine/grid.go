package engine

// Grid is a row-major arrangement of coins. Row 0 is the top of every column.
type Grid [][]Denomination

// NewGrid creates an empty grid
func NewGrid(rows, columns int) Grid {
	grid := make(Grid, rows)
	for i := range grid {
		grid[i] = make([]Denomination, columns)
	}
	return grid
}

// GenerateGrid fills every cell with a uniformly random base denomination
func GenerateGrid(rows, columns int, src RandomSource) Grid {
	grid := NewGrid(rows, columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			grid[r][c] = RandomDenomination(src)
		}
	}
	return grid
}

// GeneratePlayableGrid regenerates until the grid is playable or
// MaxRegenerateAttempts is reached. It returns the grid and the number of
// generations it took.
func GeneratePlayableGrid(rows, columns int, src RandomSource) (Grid, int) {
	grid := GenerateGrid(rows, columns, src)
	attempts := 1
	for !IsPlayable(grid) && attempts < MaxRegenerateAttempts {
		grid = GenerateGrid(rows, columns, src)
		attempts++
	}
	return grid, attempts
}

// Rows returns the number of rows
func (g Grid) Rows() int {
	return len(g)
}

// Columns returns the number of columns
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds checks if the position lies inside the grid
func (g Grid) InBounds(p Position) bool {
	if p.Row < 0 || p.Row >= len(g) {
		return false
	}
	return p.Column >= 0 && p.Column < len(g[p.Row])
}

// At returns the coin at p, or Empty when p is out of bounds
func (g Grid) At(p Position) Denomination {
	if !g.InBounds(p) {
		return Empty
	}
	return g[p.Row][p.Column]
}

// Set stores d at p. Out-of-bounds writes are ignored.
func (g Grid) Set(p Position, d Denomination) bool {
	if !g.InBounds(p) {
		return false
	}
	g[p.Row][p.Column] = d
	return true
}

// Clone returns a deep copy
func (g Grid) Clone() Grid {
	clone := make(Grid, len(g))
	for i, row := range g {
		clone[i] = append([]Denomination(nil), row...)
	}
	return clone
}

// IsFull reports whether no cell is empty
func (g Grid) IsFull() bool {
	return g.CountEmpty() == 0
}

// CountEmpty counts empty cells
func (g Grid) CountEmpty() int {
	count := 0
	for _, row := range g {
		for _, d := range row {
			if d == Empty {
				count++
			}
		}
	}
	return count
}

// CountDenomination counts the cells holding d
func (g Grid) CountDenomination(d Denomination) int {
	count := 0
	for _, row := range g {
		for _, v := range row {
			if v == d {
				count++
			}
		}
	}
	return count
}

// IsGravityConsistent reports whether every column has its coins contiguous
// at the bottom with any empties above them
func (g Grid) IsGravityConsistent() bool {
	for c := 0; c < g.Columns(); c++ {
		seenCoin := false
		for r := 0; r < g.Rows(); r++ {
			if g[r][c] != Empty {
				seenCoin = true
			} else if seenCoin {
				return false
			}
		}
	}
	return true
}

// orthogonal lists the right and down neighbours; scanning every cell with
// these two covers every orthogonal pair exactly once
var orthogonal = []Position{{Row: 0, Column: 1}, {Row: 1, Column: 0}}

// IsPlayable returns true iff some coin has an orthogonal neighbour of the
// same denomination. Empty cells never pair.
func IsPlayable(g Grid) bool {
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Columns(); c++ {
			v := g[r][c]
			if v == Empty {
				continue
			}
			for _, d := range orthogonal {
				if g.At(Position{Row: r + d.Row, Column: c + d.Column}) == v {
					return true
				}
			}
		}
	}
	return false
}

// FindPairs lists every orthogonally adjacent pair of equal coins in
// row-major order
func (g Grid) FindPairs() []Pair {
	var pairs []Pair
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Columns(); c++ {
			v := g[r][c]
			if v == Empty {
				continue
			}
			for _, d := range orthogonal {
				b := Position{Row: r + d.Row, Column: c + d.Column}
				if g.At(b) == v {
					pairs = append(pairs, Pair{
						A:         Position{Row: r, Column: c},
						B:         b,
						Value:     v,
						Mergeable: int(v)*2 >= int(v.Successor()),
					})
				}
			}
		}
	}
	return pairs
}

// PreviewQueue holds one pending coin per column
type PreviewQueue []Denomination

// GeneratePreview creates a random preview queue
func GeneratePreview(columns int, src RandomSource) PreviewQueue {
	queue := make(PreviewQueue, columns)
	for i := range queue {
		queue[i] = RandomDenomination(src)
	}
	return queue
}

// Draw consumes the pending coin of a column and restocks the slot
func (q PreviewQueue) Draw(column int, src RandomSource) Denomination {
	if column < 0 || column >= len(q) {
		return Empty
	}
	coin := q[column]
	q[column] = RandomDenomination(src)
	return coin
}

// Clone returns a copy of the queue
func (q PreviewQueue) Clone() PreviewQueue {
	return append(PreviewQueue(nil), q...)
}
