// Package engine provides the core game logic for CoinCraze.
//
// The engine package implements the game mechanics including:
//   - Grid generation and the playability check
//   - The per-column preview queue
//   - Selection tracking for chains of adjacent equal coins
//   - Merge and clear resolution with gravity refill
//   - Level advance and configuration validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState represents the current game state,
// while GameConfig defines board dimensions, scoring and messages loaded
// from JSON or YAML files.
//
// Usage:
//
//	gameEngine := engine.NewEngineWithDefaults(engine.WithRandomSource(engine.NewSeededSource(42)))
//
//	// Drag over two adjacent fives
//	gameEngine.BeginSelection(5, 0)
//	gameEngine.ExtendSelection(5, 1)
//	result := gameEngine.CompleteSelection()
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Coins come in denominations 1, 5, 10, 50, 100 and 500. A chain of equal
// coins, each touching the previous one (diagonals included), merges when
// its sum reaches the next denomination: the chain is emptied and its first
// coin becomes the next denomination. Two 500s reach 1000 and vanish.
// Columns then settle downward and are refilled from the preview row.
// Reaching the target score advances the level with a fresh board.
//
// The engine is synchronous and not safe for concurrent use. Invalid
// selection intents are ignored rather than reported as errors.
package engine
