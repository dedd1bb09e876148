// Package api provides the HTTP REST API for CoinCraze sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=accessed|created|score&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Scoreboard (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Session info with state and config
//   - DELETE /api/sessions/{id} - Delete a session
//
// Play:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/select/begin - Start a chain at {"row", "column"}
//   - POST /api/sessions/{id}/select/extend - Extend or backtrack to {"row", "column"}
//   - POST /api/sessions/{id}/select/complete - Resolve the chain
//   - POST /api/sessions/{id}/select/cancel - Drop the chain
//   - POST /api/sessions/{id}/chain - Play {"cells": [...], "reset": bool} in one call
//   - POST /api/sessions/{id}/reset - Start over, keeping the history
//   - GET /api/sessions/{id}/hints - Equal orthogonal pairs
//   - GET /api/sessions/{id}/history - Turn history (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List configurations
//   - GET /api/configs/{name} - Load one configuration
//   - POST /api/configs - Save a configuration
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?session={id} - WebSocket stream of events and state
//
// Rejected selection intents are not errors: begin and extend answer 200
// with "accepted": false. Unknown sessions and configurations answer 404,
// invalid configurations 400. Every accepted command is pushed to WebSocket
// clients of the session, turn events first and then the new state.
package api
