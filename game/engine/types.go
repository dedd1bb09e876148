package engine

import "time"

// Denomination is a coin's face value. The zero value marks an empty cell.
type Denomination int

const (
	Empty       Denomination = 0
	One         Denomination = 1
	Five        Denomination = 5
	Ten         Denomination = 10
	Fifty       Denomination = 50
	Hundred     Denomination = 100
	FiveHundred Denomination = 500

	// Collapse is the successor of FiveHundred. It is never placed on the grid:
	// a chain promoted to Collapse is cleared instead.
	Collapse Denomination = 1000
)

// RefillPolicy controls how many preview coins a column may draw per refill pass
type RefillPolicy string

const (
	// RefillFill draws once per vacant cell until the column is full
	RefillFill RefillPolicy = "fill"
	// RefillSingle draws at most one coin per column per pass
	RefillSingle RefillPolicy = "single"
)

// Outcome is the result of resolving a completed selection
type Outcome string

const (
	OutcomeMergeSuccess Outcome = "merge_success"
	OutcomeMergeFailure Outcome = "merge_failure"
)

const (
	// Validation constants
	MinGridSize           = 1
	MaxGridSize           = 32
	MaxChainLength        = 64
	MaxRegenerateAttempts = 1000
	WebSocketBufferSize   = 256

	DefaultRows               = 6
	DefaultColumns            = 6
	DefaultInitialTargetScore = 5000
	DefaultTargetScoreStep    = 5000
	DefaultLevelUpTTLMillis   = 1500
)

// Position is a zero-based (row, column) coordinate. Row 0 is the top row.
type Position struct {
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

// ConfigMessages holds the player-facing messages of a configuration
type ConfigMessages struct {
	Welcome      string `json:"welcome" yaml:"welcome"`
	MergeSuccess string `json:"merge_success" yaml:"merge_success"`
	MergeFailure string `json:"merge_failure" yaml:"merge_failure"`
	LevelUp      string `json:"level_up" yaml:"level_up"`
	Reshuffle    string `json:"reshuffle" yaml:"reshuffle"`
	Reset        string `json:"reset" yaml:"reset"`
}

// GameConfig represents the game configuration loaded from JSON or YAML
type GameConfig struct {
	Name               string         `json:"name" yaml:"name"`
	Description        string         `json:"description" yaml:"description"`
	Rows               int            `json:"rows" yaml:"rows"`
	Columns            int            `json:"columns" yaml:"columns"`
	InitialTargetScore int            `json:"initial_target_score" yaml:"initial_target_score"`
	TargetScoreStep    int            `json:"target_score_step" yaml:"target_score_step"`
	RefillPolicy       RefillPolicy   `json:"refill_policy" yaml:"refill_policy"`
	LevelUpTTLMillis   int            `json:"level_up_ttl_ms" yaml:"level_up_ttl_ms"`
	Seed               uint64         `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 means unseeded
	Messages           ConfigMessages `json:"messages" yaml:"messages"`
}

// LevelUpTTL returns how long a level-up notice stays active
func (c *GameConfig) LevelUpTTL() time.Duration {
	return time.Duration(c.LevelUpTTLMillis) * time.Millisecond
}

// LevelUpNotice is the momentary level-up flag. Callers show it until ExpiresAt.
type LevelUpNotice struct {
	Level       int       `json:"level"`
	TargetScore int       `json:"target_score"`
	At          time.Time `json:"at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Active reports whether the notice is still visible at now
func (n *LevelUpNotice) Active(now time.Time) bool {
	return n != nil && now.Before(n.ExpiresAt)
}

// GameState represents the complete game state
type GameState struct {
	Grid        Grid           `json:"grid"`
	Preview     PreviewQueue   `json:"preview"`
	Selection   []Position     `json:"selection"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	Score       int            `json:"score"`
	Level       int            `json:"level"`
	TargetScore int            `json:"target_score"`
	Message     string         `json:"message"`
	ConfigName  string         `json:"config_name"`
	LevelUp     *LevelUpNotice `json:"level_up,omitempty"`
	Reshuffles  int            `json:"reshuffles"`

	// TurnHistory is cumulative and survives resets. CurrentTurnsCount counts
	// only the turns since the last reset.
	TurnHistory       []TurnRecord `json:"turn_history"`
	TotalTurns        int          `json:"total_turns"`
	CurrentTurnsCount int          `json:"current_turns_count"`

	// Computed helper views (not required for core game logic)
	Playable bool `json:"playable"`
}

// TurnRecord represents a single completed selection in the game history
type TurnRecord struct {
	TurnNumber int          `json:"turn_number"`
	Chain      []Position   `json:"chain"`
	BaseValue  Denomination `json:"base_value"`
	NextValue  Denomination `json:"next_value"`
	Sum        int          `json:"sum"`
	Outcome    Outcome      `json:"outcome"`
	ScoreDelta int          `json:"score_delta"`
	Placed     Denomination `json:"placed"`
	Level      int          `json:"level"`
	LevelUp    bool         `json:"level_up,omitempty"`
	Reshuffled bool         `json:"reshuffled,omitempty"`
	Timestamp  int64        `json:"timestamp"`
}

// TurnResult is returned by CompleteSelection and describes everything the turn changed
type TurnResult struct {
	Outcome    Outcome        `json:"outcome"`
	Merged     bool           `json:"merged"`
	Chain      []Position     `json:"chain"`
	BaseValue  Denomination   `json:"base_value"`
	NextValue  Denomination   `json:"next_value"`
	Sum        int            `json:"sum"`
	ScoreDelta int            `json:"score_delta"`
	Placed     Denomination   `json:"placed"`            // Empty when failed or collapsed
	Cleared    bool           `json:"cleared,omitempty"` // chain collapsed at 1000
	Refilled   int            `json:"refilled"`
	LevelUp    *LevelUpNotice `json:"level_up,omitempty"`
	Reshuffled bool           `json:"reshuffled,omitempty"`
	Message    string         `json:"message"`
}

// Pair is an orthogonally adjacent pair of equal coins
type Pair struct {
	A         Position     `json:"a"`
	B         Position     `json:"b"`
	Value     Denomination `json:"value"`
	Mergeable bool         `json:"mergeable"` // the pair alone reaches the next denomination
}
