package engine

import (
	"strings"
	"testing"
	"time"
)

func createTestConfig() *GameConfig {
	config := &GameConfig{
		Name:               "Engine Test Config",
		Description:        "Configuration for engine integration tests",
		Rows:               6,
		Columns:            6,
		InitialTargetScore: 5000,
		TargetScoreStep:    5000,
		RefillPolicy:       RefillFill,
		LevelUpTTLMillis:   1500,
		Messages: ConfigMessages{
			Welcome:      "Welcome to engine test!",
			MergeSuccess: "Merged %d!",
			MergeFailure: "No merge.",
			LevelUp:      "Level %d! Target %d",
			Reshuffle:    "Reshuffled.",
			Reset:        "Reset done.",
		},
	}
	return config
}

func newTestEngine(t *testing.T, config *GameConfig, grid Grid, preview PreviewQueue, opts ...Option) *GameEngine {
	t.Helper()
	opts = append([]Option{WithRandomSource(NewSeededSource(99))}, opts...)
	engine, err := NewEngineWithGrid(config, grid, preview, opts...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

func playChain(e *GameEngine, cells ...Position) *TurnResult {
	result, _ := e.PlayChain(cells)
	return result
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config, WithRandomSource(NewSeededSource(1)))
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	if engine.GetScore() != 0 {
		t.Errorf("Expected initial score 0, got %d", engine.GetScore())
	}
	if engine.GetLevel() != 1 {
		t.Errorf("Expected level 1, got %d", engine.GetLevel())
	}
	if engine.GetTargetScore() != config.InitialTargetScore {
		t.Errorf("Expected target %d, got %d", config.InitialTargetScore, engine.GetTargetScore())
	}

	state := engine.GetState()
	if state.Rows != 6 || state.Columns != 6 {
		t.Errorf("Expected 6x6 state, got %dx%d", state.Rows, state.Columns)
	}
	if !state.Grid.IsFull() {
		t.Error("Expected a full initial grid")
	}
	if !state.Playable || !engine.IsPlayable() {
		t.Error("Expected a playable initial grid")
	}
	if len(state.Preview) != config.Columns {
		t.Errorf("Expected %d preview coins, got %d", config.Columns, len(state.Preview))
	}
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.Selection) != 0 {
		t.Error("Expected empty selection")
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Rows = 0

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults(WithRandomSource(NewSeededSource(5)))
	if engine.GetConfig().Name != "classic" {
		t.Errorf("Expected classic config, got %q", engine.GetConfig().Name)
	}
	if engine.GetGrid().Rows() != DefaultRows || engine.GetGrid().Columns() != DefaultColumns {
		t.Error("Expected default grid dimensions")
	}
}

func TestNewEngineWithGridValidation(t *testing.T) {
	config := createTestConfig()

	if _, err := NewEngineWithGrid(config, Grid{{1, 5}, {10}}, nil); err == nil {
		t.Error("Expected error for ragged grid")
	}
	if _, err := NewEngineWithGrid(config, Grid{{1, 5}}, PreviewQueue{1}); err == nil {
		t.Error("Expected error for short preview")
	}
	if _, err := NewEngineWithGrid(config, Grid{{1}}, nil); err == nil {
		t.Error("Expected error for single-cell grid")
	}
}

func TestSeededConfigIsDeterministic(t *testing.T) {
	config := createTestConfig()
	config.Seed = 1234

	a, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	b, _ := NewEngine(config)

	ga, gb := a.GetGrid(), b.GetGrid()
	for r := range ga {
		for c := range ga[r] {
			if ga[r][c] != gb[r][c] {
				t.Fatalf("Seeded engines differ at (%d,%d)", r, c)
			}
		}
	}
}

func TestCompleteSelectionFailureLeavesGrid(t *testing.T) {
	grid := Grid{{10, 10, 50, 5, 1, 100}}
	engine := newTestEngine(t, createTestConfig(), grid, nil)

	engine.BeginSelection(0, 0)
	engine.ExtendSelection(0, 1)
	result := engine.CompleteSelection()

	if result.Merged || result.Outcome != OutcomeMergeFailure {
		t.Fatalf("10+10 should not merge, got %+v", result)
	}
	if result.Message != "No merge." {
		t.Errorf("Expected failure message, got %q", result.Message)
	}
	after := engine.GetGrid()
	for c := range grid[0] {
		if after[0][c] != grid[0][c] {
			t.Errorf("Column %d changed after failed merge", c)
		}
	}
	if engine.GetScore() != 0 {
		t.Errorf("Expected score 0, got %d", engine.GetScore())
	}
	if len(engine.GetSelection()) != 0 {
		t.Error("Expected selection cleared after complete")
	}
	if len(engine.GetTurnHistory()) != 1 {
		t.Error("Expected failed turn recorded")
	}
}

func hundredsGrid() Grid {
	return Grid{
		{100, 100, 100},
		{100, 100, 5},
		{1, 5, 10},
		{50, 50, 1},
	}
}

func TestCompleteSelectionHundreds(t *testing.T) {
	t.Run("three hundreds fail", func(t *testing.T) {
		engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)
		result := playChain(engine, Position{0, 0}, Position{0, 1}, Position{0, 2})
		if result.Merged {
			t.Error("300 should not merge")
		}
		if result.Refilled != 0 {
			t.Errorf("Failed merge should not draw, got %d", result.Refilled)
		}
	})

	t.Run("four hundreds fail", func(t *testing.T) {
		engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)
		result := playChain(engine, Position{0, 0}, Position{0, 1}, Position{0, 2}, Position{1, 1})
		if result.Merged {
			t.Error("400 should not merge")
		}
	})

	t.Run("five hundreds merge", func(t *testing.T) {
		preview := PreviewQueue{One, Five, Ten}
		engine := newTestEngine(t, createTestConfig(), hundredsGrid(), preview)

		result := playChain(engine, Position{0, 0}, Position{0, 1}, Position{0, 2}, Position{1, 1}, Position{1, 0})
		if !result.Merged {
			t.Fatal("500 should merge")
		}
		if result.Placed != FiveHundred {
			t.Errorf("Expected 500 placed, got %d", result.Placed)
		}
		if result.ScoreDelta != 500 || engine.GetScore() != 500 {
			t.Errorf("Expected score 500, got delta %d score %d", result.ScoreDelta, engine.GetScore())
		}
		if result.Refilled != 4 {
			t.Errorf("Expected 4 coins drawn, got %d", result.Refilled)
		}
		if result.Message != "Merged 500!" {
			t.Errorf("Unexpected message %q", result.Message)
		}

		g := engine.GetGrid()
		// column 0: 500 settles on 1 and 50, preview coin on top
		checkColumn(t, g, 0, []Denomination{One, FiveHundred, One, Fifty})
		// column 1: two draws, the older one lowest
		if g[1][1] != Five {
			t.Errorf("Expected the column's first draw at (1,1), got %d", g[1][1])
		}
		if g[2][1] != Five || g[3][1] != Fifty {
			t.Error("Column 1 survivors not settled at the bottom")
		}
		checkColumn(t, g, 2, []Denomination{Ten, Five, Ten, One})
		if !g.IsFull() {
			t.Error("Fill policy should leave a full grid")
		}
		if result.Reshuffled {
			t.Error("Grid with a 50-50 pair should not reshuffle")
		}
	})
}

func checkColumn(t *testing.T, g Grid, column int, want []Denomination) {
	t.Helper()
	for r, w := range want {
		if g[r][column] != w {
			t.Errorf("(%d,%d): expected %d, got %d", r, column, w, g[r][column])
		}
	}
}

func TestCompleteSelectionCollapse(t *testing.T) {
	grid := Grid{
		{500, 500},
		{1, 5},
		{10, 10},
	}
	preview := PreviewQueue{Fifty, Hundred}
	engine := newTestEngine(t, createTestConfig(), grid, preview)

	result := playChain(engine, Position{0, 0}, Position{0, 1})

	if !result.Merged || !result.Cleared {
		t.Fatalf("Expected collapse, got %+v", result)
	}
	if result.Placed != Empty {
		t.Errorf("Expected nothing placed, got %d", result.Placed)
	}
	if engine.GetScore() != 1000 {
		t.Errorf("Expected score 1000, got %d", engine.GetScore())
	}
	g := engine.GetGrid()
	checkColumn(t, g, 0, []Denomination{Fifty, One, Ten})
	checkColumn(t, g, 1, []Denomination{Hundred, Five, Ten})
	if g.CountDenomination(FiveHundred) != 0 {
		t.Error("Expected the 500s gone")
	}
}

func TestCompleteSelectionSingleRefill(t *testing.T) {
	config := createTestConfig()
	config.RefillPolicy = RefillSingle
	engine := newTestEngine(t, config, hundredsGrid(), PreviewQueue{One, Five, Ten})

	result := playChain(engine, Position{0, 0}, Position{0, 1}, Position{0, 2}, Position{1, 1}, Position{1, 0})
	if !result.Merged {
		t.Fatal("Expected merge")
	}
	if result.Refilled != 3 {
		t.Errorf("Expected one draw per column, got %d", result.Refilled)
	}

	g := engine.GetGrid()
	if g[0][1] != Empty {
		t.Errorf("Expected (0,1) to stay empty under single refill, got %d", g[0][1])
	}
	if !g.IsGravityConsistent() {
		t.Error("Expected gravity-consistent grid")
	}
}

func TestCompleteSelectionEmpty(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)

	result := engine.CompleteSelection()
	if result.Merged || result.Outcome != OutcomeMergeFailure {
		t.Error("Empty completion should be a failure")
	}
	if len(engine.GetTurnHistory()) != 0 {
		t.Error("Empty completion should not be recorded")
	}
}

func TestSingleCoinChainNeverMerges(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)
	before := engine.GetGrid()

	if !engine.BeginSelection(3, 2) {
		t.Fatal("Expected begin on occupied cell")
	}
	result := engine.CompleteSelection()
	if result.Merged {
		t.Error("A single coin should never merge")
	}
	after := engine.GetGrid()
	for r := range before {
		for c := range before[r] {
			if before[r][c] != after[r][c] {
				t.Fatalf("Grid changed at (%d,%d)", r, c)
			}
		}
	}
}

func TestSelectionSummary(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)

	summary := engine.GetSelectionSummary()
	if summary.State != SelectionEmpty || len(summary.Chain) != 0 {
		t.Error("Expected empty summary")
	}

	engine.BeginSelection(0, 0)
	engine.ExtendSelection(0, 1)
	summary = engine.GetSelectionSummary()
	if summary.State != SelectionAccumulating {
		t.Errorf("Expected accumulating, got %s", summary.State)
	}
	if summary.Sum != 200 || summary.WouldMerge {
		t.Errorf("Expected sum 200 without merge, got %d %v", summary.Sum, summary.WouldMerge)
	}
	if summary.NextValue != FiveHundred {
		t.Errorf("Expected next value 500, got %d", summary.NextValue)
	}

	engine.ExtendSelection(0, 2)
	engine.ExtendSelection(1, 1)
	engine.ExtendSelection(1, 0)
	if !engine.GetSelectionSummary().WouldMerge {
		t.Error("Expected five hundreds to report a merge")
	}

	engine.CancelSelection()
	if len(engine.GetSelection()) != 0 {
		t.Error("Expected cancel to clear the selection")
	}
}

func TestOutOfBoundsCommandsAreIgnored(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)

	if engine.BeginSelection(-1, 0) || engine.BeginSelection(4, 0) || engine.BeginSelection(0, 3) {
		t.Error("Out-of-bounds begin should be ignored")
	}
	engine.BeginSelection(0, 0)
	if engine.ExtendSelection(-1, -1) || engine.ExtendSelection(100, 100) {
		t.Error("Out-of-bounds extend should be ignored")
	}
	if engine.CellAt(-1, 0) != Empty || engine.CellAt(0, 99) != Empty {
		t.Error("Out-of-bounds cells should read as Empty")
	}
	if len(engine.GetSelection()) != 1 {
		t.Errorf("Expected the chain to keep its first cell, got %v", engine.GetSelection())
	}
}

func TestPlayChainReportsRejectedCells(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)

	// (2,0) holds a 1 and is not adjacent to (0,0); the drag skips it
	result, rejected := engine.PlayChain([]Position{{0, 0}, {2, 0}, {0, 1}})
	if len(rejected) != 1 || rejected[0] != (Position{2, 0}) {
		t.Errorf("Expected (2,0) rejected, got %v", rejected)
	}
	if len(result.Chain) != 2 {
		t.Errorf("Expected a 2-cell chain, got %v", result.Chain)
	}
}

func TestLevelUp(t *testing.T) {
	config := createTestConfig()
	config.InitialTargetScore = 1000

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	grid := Grid{
		{500, 500},
		{1, 5},
		{10, 10},
	}
	engine := newTestEngine(t, config, grid, nil, WithClock(clock))

	result := playChain(engine, Position{0, 0}, Position{0, 1})
	if result.LevelUp == nil {
		t.Fatal("Expected level up")
	}

	if engine.GetLevel() != 2 {
		t.Errorf("Expected level 2, got %d", engine.GetLevel())
	}
	if engine.GetScore() != 0 {
		t.Errorf("Expected score reset to 0, got %d", engine.GetScore())
	}
	if engine.GetTargetScore() != 1000+config.TargetScoreStep {
		t.Errorf("Expected target %d, got %d", 1000+config.TargetScoreStep, engine.GetTargetScore())
	}
	if result.Message != "Level 2! Target 6000" {
		t.Errorf("Unexpected level-up message %q", result.Message)
	}

	state := engine.GetState()
	if state.LevelUp == nil || !state.LevelUpActive(now) {
		t.Fatal("Expected an active level-up notice")
	}
	if !state.LevelUp.ExpiresAt.Equal(now.Add(1500 * time.Millisecond)) {
		t.Errorf("Expected notice to expire after 1.5s, got %v", state.LevelUp.ExpiresAt)
	}
	if state.Rows != 3 || state.Columns != 2 || state.Grid.Rows() != 3 || state.Grid.Columns() != 2 {
		t.Error("Grid dimensions must survive a level up")
	}
	if !state.Playable {
		t.Error("Expected a playable grid after level up")
	}
	if len(state.Selection) != 0 {
		t.Error("Expected empty selection after level up")
	}

	last := engine.GetLastTurn()
	if last == nil || !last.LevelUp || last.Level != 2 {
		t.Errorf("Expected last turn flagged as level up, got %+v", last)
	}

	now = now.Add(2 * time.Second)
	if engine.GetState().LevelUp != nil {
		t.Error("Expected the level-up notice to expire")
	}
}

func TestNoLevelUpBelowTarget(t *testing.T) {
	config := createTestConfig()
	config.InitialTargetScore = 1001

	grid := Grid{
		{500, 500},
		{1, 5},
		{10, 10},
	}
	engine := newTestEngine(t, config, grid, nil)

	result := playChain(engine, Position{0, 0}, Position{0, 1})
	if result.LevelUp != nil || engine.GetLevel() != 1 {
		t.Error("Score 1000 should not reach target 1001")
	}
	if engine.GetScore() != 1000 {
		t.Errorf("Expected score 1000, got %d", engine.GetScore())
	}
}

func TestReshuffleWhenUnplayable(t *testing.T) {
	grid := Grid{
		{5, 5},
		{1, 10},
		{10, 1},
	}
	engine := newTestEngine(t, createTestConfig(), grid, PreviewQueue{One, Fifty})

	result := playChain(engine, Position{0, 0}, Position{0, 1})
	if !result.Merged {
		t.Fatal("Expected 5+5 to merge")
	}
	// column 0: 10 on 1 on 10 ; column 1: 50 on 10 on 1 -> no orthogonal pair
	if !result.Reshuffled {
		t.Fatal("Expected a reshuffle on a dead grid")
	}
	if !strings.HasSuffix(result.Message, "Reshuffled.") {
		t.Errorf("Expected reshuffle message, got %q", result.Message)
	}
	state := engine.GetState()
	if !state.Playable || state.Reshuffles != 1 {
		t.Errorf("Expected a playable reshuffled grid, got playable=%v reshuffles=%d", state.Playable, state.Reshuffles)
	}
}

func TestReset(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)
	playChain(engine, Position{0, 0}, Position{0, 1}, Position{0, 2}, Position{1, 1}, Position{1, 0})
	engine.BeginSelection(3, 0)

	state := engine.Reset()
	if state.Score != 0 || state.Level != 1 {
		t.Errorf("Expected fresh score and level, got %d/%d", state.Score, state.Level)
	}
	if state.TargetScore != 5000 {
		t.Errorf("Expected initial target, got %d", state.TargetScore)
	}
	if len(state.Selection) != 0 {
		t.Error("Expected reset to clear the selection")
	}
	if state.Message != "Reset done." {
		t.Errorf("Expected reset message, got %q", state.Message)
	}
	if state.TotalTurns != 1 || len(state.TurnHistory) != 1 {
		t.Error("Turn history should survive a reset")
	}
	if state.CurrentTurnsCount != 0 {
		t.Errorf("Expected current turn count 0, got %d", state.CurrentTurnsCount)
	}
	if !state.Grid.IsFull() {
		t.Error("Expected full grid after reset")
	}
}

func TestSetConfig(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)

	config := createTestConfig()
	config.Name = "wide"
	config.Rows = 4
	config.Columns = 8
	if err := engine.SetConfig(config); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	state := engine.GetState()
	if state.Rows != 4 || state.Columns != 8 || state.ConfigName != "wide" {
		t.Errorf("Expected wide 4x8 state, got %s %dx%d", state.ConfigName, state.Rows, state.Columns)
	}

	bad := createTestConfig()
	bad.RefillPolicy = "sometimes"
	if err := engine.SetConfig(bad); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}

func TestGetHints(t *testing.T) {
	engine := newTestEngine(t, createTestConfig(), hundredsGrid(), nil)
	hints := engine.GetHints()
	if len(hints) == 0 {
		t.Fatal("Expected hints on a playable grid")
	}
	for _, h := range hints {
		if engine.CellAt(h.A.Row, h.A.Column) != engine.CellAt(h.B.Row, h.B.Column) {
			t.Errorf("Hint %+v pairs different coins", h)
		}
	}
}

// Random play must keep the board invariants turn after turn.
func TestRandomPlayInvariants(t *testing.T) {
	for _, policy := range []RefillPolicy{RefillFill, RefillSingle} {
		t.Run(string(policy), func(t *testing.T) {
			config := createTestConfig()
			config.RefillPolicy = policy
			config.InitialTargetScore = 3000
			config.TargetScoreStep = 2000
			engine, err := NewEngine(config, WithRandomSource(NewSeededSource(2024)))
			if err != nil {
				t.Fatalf("Failed to create engine: %v", err)
			}
			src := NewSeededSource(77)

			for turn := 0; turn < 300; turn++ {
				before := engine.GetScore()
				hints := engine.GetHints()

				if len(hints) == 0 {
					t.Fatalf("Turn %d: no hints on a grid reported playable=%v", turn, engine.IsPlayable())
				}
				h := hints[src.IntN(len(hints))]
				result := playChain(engine, h.A, h.B)

				state := engine.GetState()
				if state.Grid.Rows() != config.Rows || state.Grid.Columns() != config.Columns {
					t.Fatalf("Turn %d: grid dimensions changed", turn)
				}
				if len(state.Selection) != 0 {
					t.Fatalf("Turn %d: selection not empty after complete", turn)
				}
				if !state.Grid.IsGravityConsistent() {
					t.Fatalf("Turn %d: grid not gravity consistent", turn)
				}
				if policy == RefillFill && !state.Grid.IsFull() {
					t.Fatalf("Turn %d: fill policy left empties", turn)
				}
				if !state.Playable {
					t.Fatalf("Turn %d: grid left unplayable", turn)
				}
				if !result.Merged && result.LevelUp == nil && state.Score != before {
					t.Fatalf("Turn %d: failed merge changed the score", turn)
				}
				if result.Merged && result.LevelUp == nil && state.Score != before+result.ScoreDelta {
					t.Fatalf("Turn %d: score %d != %d + %d", turn, state.Score, before, result.ScoreDelta)
				}
			}
		})
	}
}
