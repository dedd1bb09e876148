package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session ID: %s\nConfig: %s\nCreated: %s\n\n",
		session.ID, session.ConfigName, session.CreatedAt.Format(time.RFC3339))
	return result + formatGameState(session.GameState)
}

func sessionLine(session *service.SessionInfo) string {
	line := fmt.Sprintf("%s [%s]", session.ID, session.ConfigName)
	if st := session.GameState; st != nil {
		line += fmt.Sprintf(" level %d, score %d/%d, %d turns", st.Level, st.Score, st.TargetScore, st.TotalTurns)
	}
	return line
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "Game state unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %d\nScore: %d/%d\n", state.Level, state.Score, state.TargetScore)
	if state.LevelUp.Active(time.Now()) {
		fmt.Fprintf(&b, "*** LEVEL %d! New target: %d ***\n", state.LevelUp.Level, state.LevelUp.TargetScore)
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	b.WriteString("\nPreview (falls next):\n")
	b.WriteString(formatPreview(state.Preview))
	b.WriteString("\nBoard:\n")
	b.WriteString(formatBoard(state.Grid, state.Selection))

	if len(state.Selection) > 0 {
		fmt.Fprintf(&b, "\nSelection: %s\n", formatCells(state.Selection))
	}
	if !state.Playable {
		b.WriteString("\nNo equal orthogonal neighbours left.\n")
	}
	fmt.Fprintf(&b, "\nTurns: %d (this game), %d (total), reshuffles: %d\n",
		state.CurrentTurnsCount, state.TotalTurns, state.Reshuffles)
	return b.String()
}

// formatBoard renders the grid with column and row labels. Selected cells
// are shown in brackets.
func formatBoard(grid engine.Grid, selection []engine.Position) string {
	var b strings.Builder
	b.WriteString("    ")
	for c := 0; c < grid.Columns(); c++ {
		fmt.Fprintf(&b, "%6d", c)
	}
	b.WriteString("\n")
	for r, line := range engine.RenderGrid(grid, selection) {
		fmt.Fprintf(&b, "%3d %s\n", r, line)
	}
	return b.String()
}

func formatPreview(preview engine.PreviewQueue) string {
	var b strings.Builder
	b.WriteString("    ")
	for _, d := range preview {
		fmt.Fprintf(&b, "%6s", d.String())
	}
	b.WriteString("\n")
	return b.String()
}

func formatCells(cells []engine.Position) string {
	parts := make([]string, len(cells))
	for i, p := range cells {
		parts[i] = fmt.Sprintf("(%d,%d)", p.Row, p.Column)
	}
	return strings.Join(parts, " → ")
}

func formatSelectionResult(result *service.SelectionResult) string {
	var b strings.Builder
	if result.Accepted {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	if result.Message != "" {
		b.WriteString(result.Message)
	}
	b.WriteString("\n")

	sel := result.Selection
	if len(sel.Chain) > 0 {
		fmt.Fprintf(&b, "Chain: %s\n", formatCells(sel.Chain))
		fmt.Fprintf(&b, "Sum: %d of %d needed for %s", sel.Sum, sel.NextValue, sel.NextValue)
		if sel.WouldMerge {
			b.WriteString(" (would merge)")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No selection\n")
	}

	if result.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatBoard(result.GameState.Grid, result.GameState.Selection))
	}
	return b.String()
}

func formatTurnResult(result *service.TurnResult) string {
	var b strings.Builder
	if turn := result.Turn; turn != nil {
		if turn.Merged {
			b.WriteString("✓ Merge!")
		} else {
			b.WriteString("✗ No merge.")
		}
		if turn.Message != "" {
			b.WriteString(" " + turn.Message)
		}
		b.WriteString("\n")

		if len(turn.Chain) > 0 {
			fmt.Fprintf(&b, "Chain: %s (%d × %s, sum %d, needed %d)\n",
				formatCells(turn.Chain), len(turn.Chain), turn.BaseValue, turn.Sum, turn.NextValue)
		}
		switch {
		case turn.Cleared:
			fmt.Fprintf(&b, "Chain cleared, +%d points\n", turn.ScoreDelta)
		case turn.Merged:
			fmt.Fprintf(&b, "Placed %s at %s, +%d points\n", turn.Placed, formatCells(turn.Chain[:1]), turn.ScoreDelta)
		}
		if turn.Refilled > 0 {
			fmt.Fprintf(&b, "Refilled %d cells\n", turn.Refilled)
		}
		if turn.LevelUp != nil {
			fmt.Fprintf(&b, "*** LEVEL UP! Level %d, target %d ***\n", turn.LevelUp.Level, turn.LevelUp.TargetScore)
		}
		if turn.Reshuffled {
			b.WriteString("Board reshuffled: no moves were left\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatChainResult(result *service.ChainResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chain: %d of %d cells accepted\n", result.AcceptedCells, result.RequestedCells)
	if result.Truncated {
		fmt.Fprintf(&b, "Chain truncated to %d cells\n", result.Limit)
	}
	if len(result.Rejected) > 0 {
		fmt.Fprintf(&b, "Rejected cells: %s\n", formatCells(result.Rejected))
		b.WriteString("(a cell is rejected when it is empty, out of bounds, already in the chain, not adjacent, or a different value)\n")
	}
	b.WriteString(formatTurnResult(&result.TurnResult))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalTurns)

	if len(history.Turns) == 0 {
		b.WriteString("(no turns yet)\n")
		return b.String()
	}

	for _, turn := range history.Turns {
		status := "✓"
		if turn.Outcome != engine.OutcomeMergeSuccess {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %d × %s = %d [+%d, level %d]",
			turn.TurnNumber, status, len(turn.Chain), turn.BaseValue, turn.Sum, turn.ScoreDelta, turn.Level)
		if turn.LevelUp {
			b.WriteString(" LEVEL UP")
		}
		if turn.Reshuffled {
			b.WriteString(" reshuffled")
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore turns on page %d\n", history.Page+1)
	}
	return b.String()
}

func formatHints(hints *service.HintsResult) string {
	var b strings.Builder
	if len(hints.Pairs) == 0 {
		b.WriteString("No equal orthogonal neighbours.\n")
	} else {
		fmt.Fprintf(&b, "Equal neighbours: %d pairs, %d merge on their own\n\n", len(hints.Pairs), hints.MergeablePairs)
		for _, p := range hints.Pairs {
			mark := " "
			if p.Mergeable {
				mark = "✓"
			}
			fmt.Fprintf(&b, "%s %s at (%d,%d)-(%d,%d)\n", mark, p.Value, p.A.Row, p.A.Column, p.B.Row, p.B.Column)
		}
	}
	if len(hints.Grid) > 0 {
		b.WriteString("\nBoard:\n")
		for _, line := range hints.Grid {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// describeCell explains one cell: its coin, its successor and the coins a
// chain from here could continue to
func describeCell(state *engine.GameState, pos engine.Position) string {
	grid := state.Grid
	coin := grid.At(pos)

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d, %d)\n", pos.Row, pos.Column)
	if coin.IsEmpty() {
		b.WriteString("Empty: it will be filled from the preview row after the next turn.\n")
		return b.String()
	}

	next := coin.Successor()
	fmt.Fprintf(&b, "Coin: %s\n", coin)
	if next == engine.Collapse {
		fmt.Fprintf(&b, "Merges into: nothing; a chain summing to %d is cleared\n", int(next))
	} else {
		fmt.Fprintf(&b, "Merges into: %s (chain sum must reach %d, i.e. %d coins)\n", next, int(next), coinsNeeded(coin))
	}

	var equal []engine.Position
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			n := engine.Position{Row: pos.Row + dr, Column: pos.Column + dc}
			if n != pos && grid.InBounds(n) && grid.At(n) == coin {
				equal = append(equal, n)
			}
		}
	}
	if len(equal) == 0 {
		b.WriteString("Equal neighbours: none\n")
	} else {
		fmt.Fprintf(&b, "Equal neighbours: %s\n", formatCells(equal))
	}

	for _, p := range state.Selection {
		if p == pos {
			b.WriteString("Part of the current selection\n")
			break
		}
	}
	return b.String()
}

// coinsNeeded is the shortest chain of d that reaches its successor
func coinsNeeded(d engine.Denomination) int {
	next := int(d.Successor())
	return (next + int(d) - 1) / int(d)
}
