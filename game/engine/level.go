package engine

import "time"

// levelUp advances to the next level with a fresh playable grid and preview
// queue, and raises the momentary level-up notice
func (e *GameEngine) levelUp() *LevelUpNotice {
	e.state.Level++
	e.state.TargetScore += e.config.TargetScoreStep
	e.state.Score = 0
	e.selection.Reset()

	e.state.Grid, _ = GeneratePlayableGrid(e.config.Rows, e.config.Columns, e.src)
	e.state.Preview = GeneratePreview(e.config.Columns, e.src)

	now := e.now()
	e.state.LevelUp = &LevelUpNotice{
		Level:       e.state.Level,
		TargetScore: e.state.TargetScore,
		At:          now,
		ExpiresAt:   now.Add(e.config.LevelUpTTL()),
	}
	return e.state.LevelUp
}

// reshuffle replaces a dead grid; the preview queue is kept
func (e *GameEngine) reshuffle() {
	e.state.Grid, _ = GeneratePlayableGrid(e.config.Rows, e.config.Columns, e.src)
	e.state.Reshuffles++
}

// expireLevelUp drops the level-up notice once its TTL has passed
func (e *GameEngine) expireLevelUp() {
	if e.state.LevelUp != nil && !e.state.LevelUp.Active(e.now()) {
		e.state.LevelUp = nil
	}
}

// recordTurn adds a completed turn to the history
func (e *GameEngine) recordTurn(result *TurnResult) {
	entry := TurnRecord{
		TurnNumber: e.state.TotalTurns + 1,
		Chain:      result.Chain,
		BaseValue:  result.BaseValue,
		NextValue:  result.NextValue,
		Sum:        result.Sum,
		Outcome:    result.Outcome,
		ScoreDelta: result.ScoreDelta,
		Placed:     result.Placed,
		Level:      e.state.Level,
		LevelUp:    result.LevelUp != nil,
		Reshuffled: result.Reshuffled,
		Timestamp:  e.now().Unix(),
	}
	e.state.TurnHistory = append(e.state.TurnHistory, entry)
	e.state.TotalTurns++
	e.state.CurrentTurnsCount++
}

// LevelUpActive reports whether a level-up notice is visible at now
func (gs *GameState) LevelUpActive(now time.Time) bool {
	return gs.LevelUp.Active(now)
}
