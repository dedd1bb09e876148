package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
)

// Event types broadcast to clients
const (
	EventStateUpdate  = "state_update"
	EventMergeSuccess = "merge_success"
	EventMergeFailure = "merge_failure"
	EventLevelUp      = "level_up"
	EventReshuffle    = "reshuffle"
	EventReset        = "reset"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// SelectionResult is returned by the begin, extend and cancel commands.
// Rejected intents are not errors: Accepted is false and nothing changed.
type SelectionResult struct {
	Accepted  bool                    `json:"accepted"`
	Selection engine.SelectionSummary `json:"selection"`
	GameState *engine.GameState       `json:"game_state"`
	Message   string                  `json:"message,omitempty"`
}

// TurnResult contains the result of completing a selection
type TurnResult struct {
	Success   bool               `json:"success"` // the chain merged
	Turn      *engine.TurnResult `json:"turn"`
	GameState *engine.GameState  `json:"game_state"`
	Message   string             `json:"message"`
	Events    []GameEvent        `json:"events"`
}

// ChainResult contains the result of a one-shot chain
type ChainResult struct {
	TurnResult

	RequestedCells int               `json:"requested_cells"`
	AcceptedCells  int               `json:"accepted_cells"`
	Rejected       []engine.Position `json:"rejected,omitempty"` // cells the tracker skipped
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`
}

// HintsResult lists the orthogonal equal pairs on the board
type HintsResult struct {
	Pairs          []engine.Pair           `json:"pairs"`
	MergeablePairs int                     `json:"mergeable_pairs"`
	Playable       bool                    `json:"playable"`
	Selection      engine.SelectionSummary `json:"selection"`
	Grid           []string                `json:"grid"` // rendered rows, selection in brackets
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"` // "merge_success", "merge_failure", "level_up", "reshuffle", "reset"
	Message     string           `json:"message"`
	Timestamp   time.Time        `json:"timestamp"`
	ScoreDelta  int              `json:"score_delta,omitempty"`
	Level       int              `json:"level,omitempty"`
	TargetScore int              `json:"target_score,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	Position    *engine.Position `json:"position,omitempty"`
}

// NewGameEvent creates an event stamped with a fresh ID and the current time
func NewGameEvent(eventType, message string) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename     string              `json:"filename"`
	ConfigID     string              `json:"config_id"` // The identifier to use for session creation
	Name         string              `json:"name"`      // Display name
	Description  string              `json:"description"`
	Rows         int                 `json:"rows"`
	Columns      int                 `json:"columns"`
	TargetScore  int                 `json:"target_score"`
	RefillPolicy engine.RefillPolicy `json:"refill_policy"`
}
