// Package service provides the business logic layer for CoinCraze.
//
// The service package implements:
//   - Multi-session game management
//   - Selection commands (begin, extend, cancel, complete) and one-shot chains
//   - Event extraction from completed turns
//   - Paginated turn history
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and the
// game engine. Each session owns an engine; engines are not safe for concurrent
// use, so the service serializes every engine call and hands out cloned state
// snapshots.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cells := []engine.Position{{Row: 5, Column: 0}, {Row: 5, Column: 1}}
//	result, err := gameService.PlayChain(ctx, sessionInfo.ID, cells, false)
//
// Rejected selection intents are not errors. They come back with Accepted set
// to false and leave the session untouched.
package service
