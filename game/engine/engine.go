package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	GetScore() int
	GetLevel() int
	GetTargetScore() int
	GetGrid() Grid
	GetPreview() PreviewQueue
	CellAt(row, column int) Denomination
	IsPlayable() bool

	// Selection commands
	BeginSelection(row, column int) bool
	ExtendSelection(row, column int) bool
	CompleteSelection() *TurnResult
	CancelSelection()
	GetSelection() []Position
	GetSelectionSummary() SelectionSummary

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetTurnHistory() []TurnRecord
	GetLastTurn() *TurnRecord

	// Decision aids
	GetHints() []Pair
}

// SelectionSummary describes the in-progress chain for highlighting
type SelectionSummary struct {
	State      SelectionState `json:"state"`
	Chain      []Position     `json:"chain"`
	BaseValue  Denomination   `json:"base_value"`
	NextValue  Denomination   `json:"next_value"`
	Sum        int            `json:"sum"`
	WouldMerge bool           `json:"would_merge"`
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access.
type GameEngine struct {
	state     *GameState
	config    *GameConfig
	selection SelectionTracker
	src       RandomSource
	now       func() time.Time
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRandomSource injects the source used for every coin draw
func WithRandomSource(src RandomSource) Option {
	return func(e *GameEngine) { e.src = src }
}

// WithClock injects the clock used for level-up notices
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) { e.now = now }
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := newGameEngine(config, opts)
	engine.state = InitGameStateFromConfig(config, engine.src)
	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	config := DefaultGameConfig()
	engine := newGameEngine(config, opts)
	engine.state = InitGameStateFromConfig(config, engine.src)
	return engine
}

// NewEngineWithGrid creates an engine whose first level starts from the given
// grid and preview queue. The grid dimensions override the configured ones.
// A nil preview is generated randomly.
func NewEngineWithGrid(config *GameConfig, grid Grid, preview PreviewQueue, opts ...Option) (*GameEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}
	cfg := *config
	cfg.Rows = grid.Rows()
	cfg.Columns = grid.Columns()
	if err := ValidateGameConfig(&cfg); err != nil {
		return nil, err
	}
	for i, row := range grid {
		if len(row) != cfg.Columns {
			return nil, fmt.Errorf("grid row %d has %d columns, expected %d", i, len(row), cfg.Columns)
		}
	}

	engine := newGameEngine(&cfg, opts)
	if preview == nil {
		preview = GeneratePreview(cfg.Columns, engine.src)
	}
	if len(preview) != cfg.Columns {
		return nil, fmt.Errorf("preview has %d coins, expected %d", len(preview), cfg.Columns)
	}

	engine.state = newGameState(&cfg, grid.Clone(), preview.Clone())
	return engine, nil
}

func newGameEngine(config *GameConfig, opts []Option) *GameEngine {
	e := &GameEngine{config: config, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		if config.Seed != 0 {
			e.src = NewSeededSource(config.Seed)
		} else {
			e.src = DefaultSource()
		}
	}
	return e
}

// GetState returns the current game state with its helper views refreshed
func (e *GameEngine) GetState() *GameState {
	e.expireLevelUp()
	e.state.Selection = e.selection.Chain()
	e.state.Playable = IsPlayable(e.state.Grid)
	return e.state
}

// Reset starts a new game. Cumulative turn history survives.
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.TurnHistory
	prevTotal := e.state.TotalTurns

	e.selection.Reset()
	e.state = InitGameStateFromConfig(e.config, e.src)

	e.state.TurnHistory = prevHistory
	e.state.TotalTurns = prevTotal
	e.state.CurrentTurnsCount = 0
	e.state.Message = e.config.Messages.Reset

	return e.GetState()
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetLevel returns the current level
func (e *GameEngine) GetLevel() int {
	return e.state.Level
}

// GetTargetScore returns the score needed to advance
func (e *GameEngine) GetTargetScore() int {
	return e.state.TargetScore
}

// GetGrid returns a copy of the grid
func (e *GameEngine) GetGrid() Grid {
	return e.state.Grid.Clone()
}

// GetPreview returns a copy of the preview queue
func (e *GameEngine) GetPreview() PreviewQueue {
	return e.state.Preview.Clone()
}

// CellAt returns the coin at (row, column), or Empty when out of bounds
func (e *GameEngine) CellAt(row, column int) Denomination {
	return e.state.Grid.At(Position{Row: row, Column: column})
}

// IsPlayable reports whether the grid holds an orthogonal equal pair
func (e *GameEngine) IsPlayable() bool {
	return IsPlayable(e.state.Grid)
}

// BeginSelection starts a chain at (row, column)
func (e *GameEngine) BeginSelection(row, column int) bool {
	return e.selection.Begin(e.state.Grid, Position{Row: row, Column: column})
}

// ExtendSelection tries to append (row, column) to the chain
func (e *GameEngine) ExtendSelection(row, column int) bool {
	return e.selection.Extend(e.state.Grid, Position{Row: row, Column: column})
}

// CancelSelection aborts the in-progress chain
func (e *GameEngine) CancelSelection() {
	e.selection.Reset()
}

// GetSelection returns the in-progress chain
func (e *GameEngine) GetSelection() []Position {
	return e.selection.Chain()
}

// GetSelectionSummary reports the in-progress chain with its running sum
func (e *GameEngine) GetSelectionSummary() SelectionSummary {
	summary := SelectionSummary{
		State: e.selection.State(),
		Chain: e.selection.Chain(),
	}
	if len(summary.Chain) == 0 {
		return summary
	}
	summary.BaseValue = e.state.Grid.At(summary.Chain[0])
	summary.NextValue = summary.BaseValue.Successor()
	for _, p := range summary.Chain {
		summary.Sum += int(e.state.Grid.At(p))
	}
	summary.WouldMerge = summary.Sum >= int(summary.NextValue)
	return summary
}

// CompleteSelection resolves the in-progress chain, then applies gravity and
// refill, level advance and the playability check. The tracker is always
// empty afterwards.
func (e *GameEngine) CompleteSelection() *TurnResult {
	e.expireLevelUp()

	chain := e.selection.Complete()
	res := Resolve(e.state.Grid, chain)

	result := &TurnResult{
		Outcome:   OutcomeMergeFailure,
		Chain:     append([]Position{}, chain...),
		BaseValue: res.BaseValue,
		NextValue: res.NextValue,
		Sum:       res.Sum,
		Message:   e.config.Messages.MergeFailure,
	}

	if res.Merged {
		e.state.Grid = res.Grid
		e.state.Score += res.ScoreDelta

		result.Outcome = OutcomeMergeSuccess
		result.Merged = true
		result.ScoreDelta = res.ScoreDelta
		result.Placed = res.Placed
		result.Cleared = res.NextValue == Collapse
		result.Message = fmt.Sprintf(e.config.Messages.MergeSuccess, res.ScoreDelta)
	}

	result.Refilled = Refill(e.state.Grid, e.state.Preview, e.src, e.config.RefillPolicy)

	if res.Merged && e.state.Score >= e.state.TargetScore {
		result.LevelUp = e.levelUp()
		result.Message = fmt.Sprintf(e.config.Messages.LevelUp, e.state.Level, e.state.TargetScore)
	} else if !IsPlayable(e.state.Grid) {
		e.reshuffle()
		result.Reshuffled = true
		result.Message = result.Message + " " + e.config.Messages.Reshuffle
	}

	e.state.Message = result.Message
	if len(chain) > 0 {
		e.recordTurn(result)
	}

	return result
}

// PlayChain feeds a scripted gesture through the tracker and completes it.
// Cells are offered in order: while the tracker is empty a cell tries to
// begin the chain, afterwards it tries to extend it. It returns the turn
// result and the cells the tracker skipped.
func (e *GameEngine) PlayChain(cells []Position) (*TurnResult, []Position) {
	e.selection.Reset()

	rejected := []Position{}
	for _, p := range cells {
		var ok bool
		if e.selection.State() == SelectionEmpty {
			ok = e.selection.Begin(e.state.Grid, p)
		} else {
			ok = e.selection.Extend(e.state.Grid, p)
		}
		if !ok {
			rejected = append(rejected, p)
		}
	}

	return e.CompleteSelection(), rejected
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.selection.Reset()
	e.state = InitGameStateFromConfig(config, e.src)
	return nil
}

// GetTurnHistory returns the complete turn history
func (e *GameEngine) GetTurnHistory() []TurnRecord {
	return e.state.TurnHistory
}

// GetLastTurn returns the last completed turn, or nil if none
func (e *GameEngine) GetLastTurn() *TurnRecord {
	if len(e.state.TurnHistory) == 0 {
		return nil
	}
	return &e.state.TurnHistory[len(e.state.TurnHistory)-1]
}

// GetHints lists every orthogonal equal pair on the grid
func (e *GameEngine) GetHints() []Pair {
	return e.state.Grid.FindPairs()
}
