package engine

import (
	"fmt"
	"strings"
)

// TotalValue sums every coin on the grid
func TotalValue(g Grid) int {
	total := 0
	for _, row := range g {
		for _, d := range row {
			total += int(d)
		}
	}
	return total
}

// HighestDenomination returns the largest coin on the grid
func HighestDenomination(g Grid) Denomination {
	highest := Empty
	for _, row := range g {
		for _, d := range row {
			if d > highest {
				highest = d
			}
		}
	}
	return highest
}

// RenderGrid formats the grid as right-aligned text rows. Selected cells are
// wrapped in brackets.
func RenderGrid(g Grid, selected []Position) []string {
	marked := make(map[Position]bool, len(selected))
	for _, p := range selected {
		marked[p] = true
	}

	lines := make([]string, 0, g.Rows())
	for r := 0; r < g.Rows(); r++ {
		var row strings.Builder
		for c := 0; c < g.Columns(); c++ {
			cell := g[r][c].String()
			if marked[Position{Row: r, Column: c}] {
				cell = "[" + cell + "]"
			}
			row.WriteString(fmt.Sprintf("%6s", cell))
		}
		lines = append(lines, row.String())
	}
	return lines
}

// Clone returns a snapshot of the state that shares no mutable storage with
// the engine
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	clone := *gs
	clone.Grid = gs.Grid.Clone()
	clone.Preview = gs.Preview.Clone()
	clone.Selection = append([]Position{}, gs.Selection...)
	clone.TurnHistory = append([]TurnRecord{}, gs.TurnHistory...)
	if gs.LevelUp != nil {
		notice := *gs.LevelUp
		clone.LevelUp = &notice
	}
	return &clone
}
