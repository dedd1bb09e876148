package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/pkg/logger"
)

var (
	// ErrConfigNotFound is returned by config managers for unknown config names
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrInvalidConfig is returned when a configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrSessionNotFound is returned for unknown session IDs
	ErrSessionNotFound = errors.New("session not found")
)

// gameServiceImpl implements the GameService interface. Engines are not
// safe for concurrent use, so every engine call happens under mu.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "classic"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := make([]string, 0, len(availableConfigs))
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	logger.WithSession(session.ID).WithField("config", configID).Info("session created")

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState().Clone(),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	logger.WithSession(sessionID).Info("session deleted")
	return nil
}

// BeginSelection starts a chain at pos
func (s *gameServiceImpl) BeginSelection(ctx context.Context, sessionID string, pos engine.Position) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.BeginSelection(pos.Row, pos.Column)
	return selectionResult(sess.Engine, accepted, pos, "begin"), nil
}

// ExtendSelection tries to append pos to the chain
func (s *gameServiceImpl) ExtendSelection(ctx context.Context, sessionID string, pos engine.Position) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.ExtendSelection(pos.Row, pos.Column)
	return selectionResult(sess.Engine, accepted, pos, "extend"), nil
}

// CancelSelection aborts the in-progress chain
func (s *gameServiceImpl) CancelSelection(ctx context.Context, sessionID string) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.CancelSelection()
	return &SelectionResult{
		Accepted:  true,
		Selection: sess.Engine.GetSelectionSummary(),
		GameState: sess.Engine.GetState().Clone(),
		Message:   "Selection cancelled",
	}, nil
}

// CompleteSelection resolves the in-progress chain
func (s *gameServiceImpl) CompleteSelection(ctx context.Context, sessionID string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	turn := sess.Engine.CompleteSelection()
	return s.turnResult(sessionID, sess, turn, nil), nil
}

// PlayChain offers every cell to the tracker in order and completes the
// chain. Cells beyond engine.MaxChainLength are dropped.
func (s *gameServiceImpl) PlayChain(ctx context.Context, sessionID string, cells []engine.Position, reset bool) (*ChainResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &ChainResult{RequestedCells: len(cells)}

	events := []GameEvent{}
	if reset {
		state := sess.Engine.Reset()
		events = append(events, NewGameEvent(EventReset, state.Message))
	}

	// Limit cells to prevent abuse
	if len(cells) > engine.MaxChainLength {
		result.Truncated = true
		result.Limit = engine.MaxChainLength
		cells = cells[:engine.MaxChainLength]
	}

	turn, rejected := sess.Engine.PlayChain(cells)
	result.TurnResult = *s.turnResult(sessionID, sess, turn, events)
	result.AcceptedCells = len(turn.Chain)
	if len(rejected) > 0 {
		result.Rejected = rejected
	}

	return result, nil
}

// Reset resets the game to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	logger.WithSession(sessionID).Info("game reset")
	return sess.Engine.Reset().Clone(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.GetState().Clone(), nil
}

// GetHints lists the orthogonal equal pairs on the board
func (s *gameServiceImpl) GetHints(ctx context.Context, sessionID string) (*HintsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	pairs := sess.Engine.GetHints()
	if pairs == nil {
		pairs = []engine.Pair{}
	}
	mergeable := 0
	for _, p := range pairs {
		if p.Mergeable {
			mergeable++
		}
	}

	return &HintsResult{
		Pairs:          pairs,
		MergeablePairs: mergeable,
		Playable:       len(pairs) > 0,
		Selection:      sess.Engine.GetSelectionSummary(),
		Grid:           engine.RenderGrid(sess.Engine.GetGrid(), sess.Engine.GetSelection()),
	}, nil
}

// GetTurnHistory returns paginated turn history
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetTurnHistory(), opts), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// getSession fetches a session and marks it accessed. Callers hold mu.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name), // Return config_id consistently
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// turnResult wraps an engine turn with a state snapshot and its events
func (s *gameServiceImpl) turnResult(sessionID string, sess *Session, turn *engine.TurnResult, events []GameEvent) *TurnResult {
	if events == nil {
		events = []GameEvent{}
	}
	events = append(events, extractTurnEvents(turn)...)

	logger.WithSession(sessionID).WithFields(logrus.Fields{
		"turn":        sess.Engine.GetState().TotalTurns,
		"outcome":     turn.Outcome,
		"chain":       len(turn.Chain),
		"score_delta": turn.ScoreDelta,
		"level_up":    turn.LevelUp != nil,
		"reshuffled":  turn.Reshuffled,
	}).Debug("selection completed")

	return &TurnResult{
		Success:   turn.Merged,
		Turn:      turn,
		GameState: sess.Engine.GetState().Clone(),
		Message:   turn.Message,
		Events:    events,
	}
}

func selectionResult(e *engine.GameEngine, accepted bool, pos engine.Position, verb string) *SelectionResult {
	result := &SelectionResult{
		Accepted:  accepted,
		Selection: e.GetSelectionSummary(),
		GameState: e.GetState().Clone(),
	}
	if !accepted {
		result.Message = fmt.Sprintf("Cannot %s selection at (%d,%d)", verb, pos.Row, pos.Column)
	}
	return result
}

// extractTurnEvents generates events from a completed turn
func extractTurnEvents(turn *engine.TurnResult) []GameEvent {
	events := []GameEvent{}

	if turn.Merged {
		ev := NewGameEvent(EventMergeSuccess, fmt.Sprintf("Merged %d coins of %d for %d points", len(turn.Chain), turn.BaseValue, turn.ScoreDelta))
		ev.ScoreDelta = turn.ScoreDelta
		if len(turn.Chain) > 0 {
			pos := turn.Chain[0]
			ev.Position = &pos
		}
		events = append(events, ev)
	} else {
		events = append(events, NewGameEvent(EventMergeFailure, failureMessage(turn)))
	}

	if turn.LevelUp != nil {
		ev := NewGameEvent(EventLevelUp, turn.Message)
		ev.Level = turn.LevelUp.Level
		ev.TargetScore = turn.LevelUp.TargetScore
		expires := turn.LevelUp.ExpiresAt
		ev.ExpiresAt = &expires
		events = append(events, ev)
	}

	if turn.Reshuffled {
		events = append(events, NewGameEvent(EventReshuffle, "No moves left, board reshuffled"))
	}

	return events
}

func failureMessage(turn *engine.TurnResult) string {
	switch {
	case len(turn.Chain) == 0:
		return "Nothing selected"
	case turn.NextValue == engine.Empty:
		return "Invalid chain"
	default:
		return fmt.Sprintf("Chain sums to %d, needs %d", turn.Sum, turn.NextValue)
	}
}

// paginateHistory slices the history for one page
func paginateHistory(history []engine.TurnRecord, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i])
			}
		} else {
			turns = append(turns, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
