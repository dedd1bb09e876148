package engine

import (
	"fmt"
	"strings"
)

// DefaultGameConfig returns the classic 6x6 configuration
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Classic 6x6 board, 5000 points per level",
		Rows:        DefaultRows,
		Columns:     DefaultColumns,
	}
	ApplyDefaults(config)
	return config
}

// ApplyDefaults fills zero-valued optional fields
func ApplyDefaults(config *GameConfig) {
	if config.InitialTargetScore == 0 {
		config.InitialTargetScore = DefaultInitialTargetScore
	}
	if config.TargetScoreStep == 0 {
		config.TargetScoreStep = DefaultTargetScoreStep
	}
	if config.RefillPolicy == "" {
		config.RefillPolicy = RefillFill
	}
	if config.LevelUpTTLMillis == 0 {
		config.LevelUpTTLMillis = DefaultLevelUpTTLMillis
	}

	m := &config.Messages
	if m.Welcome == "" {
		m.Welcome = "Welcome to CoinCraze! Chain equal coins to reach the next denomination."
	}
	if m.MergeSuccess == "" {
		m.MergeSuccess = "Merged for %d points!"
	}
	if m.MergeFailure == "" {
		m.MergeFailure = "Not enough coins to merge."
	}
	if m.LevelUp == "" {
		m.LevelUp = "Level Up! Level %d, next target %d"
	}
	if m.Reshuffle == "" {
		m.Reshuffle = "No moves left, coins reshuffled."
	}
	if m.Reset == "" {
		m.Reset = "New game started."
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate dimensions
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Columns < MinGridSize || config.Columns > MaxGridSize {
		return fmt.Errorf("config validation: columns must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Columns)
	}
	// A grid needs two cells to ever hold an adjacent pair
	if config.Rows*config.Columns < 2 {
		return fmt.Errorf("config validation: grid must have at least 2 cells, got %dx%d", config.Rows, config.Columns)
	}

	// Validate scoring
	if config.InitialTargetScore <= 0 {
		return fmt.Errorf("config validation: initial_target_score must be positive, got %d", config.InitialTargetScore)
	}
	if config.TargetScoreStep <= 0 {
		return fmt.Errorf("config validation: target_score_step must be positive, got %d", config.TargetScoreStep)
	}
	if config.LevelUpTTLMillis < 0 {
		return fmt.Errorf("config validation: level_up_ttl_ms must not be negative, got %d", config.LevelUpTTLMillis)
	}

	switch config.RefillPolicy {
	case RefillFill, RefillSingle:
	default:
		return fmt.Errorf("config validation: refill_policy must be '%s' or '%s', got '%s'", RefillFill, RefillSingle, config.RefillPolicy)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if !strings.Contains(config.Messages.MergeSuccess, "%d") {
		return fmt.Errorf("config validation: messages.merge_success must contain %%d for score delta")
	}
	if strings.Count(config.Messages.LevelUp, "%d") != 2 {
		return fmt.Errorf("config validation: messages.level_up must contain %%d twice for level and target")
	}

	return nil
}

// InitGameStateFromConfig creates a fresh level-1 game state. The grid is
// regenerated until playable.
func InitGameStateFromConfig(config *GameConfig, src RandomSource) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	grid, _ := GeneratePlayableGrid(config.Rows, config.Columns, src)
	return newGameState(config, grid, GeneratePreview(config.Columns, src))
}

// newGameState builds a level-1 state around an existing grid and preview
func newGameState(config *GameConfig, grid Grid, preview PreviewQueue) *GameState {
	return &GameState{
		Grid:              grid,
		Preview:           preview,
		Selection:         []Position{},
		Rows:              config.Rows,
		Columns:           config.Columns,
		Score:             0,
		Level:             1,
		TargetScore:       config.InitialTargetScore,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		TurnHistory:       []TurnRecord{},
		TotalTurns:        0,
		CurrentTurnsCount: 0,
	}
}
