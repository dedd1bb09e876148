// Package mcp exposes CoinCraze to AI agents over the Model Context Protocol.
//
// The Client registers a set of mcp-go tools and answers each call by
// proxying to the REST API, then formatting the JSON answer as text an
// agent can read: the board with row and column labels, the preview row,
// score, level and the outcome of the last turn.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: board, preview, score, level and target
//   - select_chain: play a whole chain in one call
//   - begin_selection, extend_selection, complete_selection, cancel_selection:
//     step-by-step play mirroring a pointer drag
//   - reset_game: start over, keeping the turn history
//   - turn_history: paginated turn history
//   - hints: equal orthogonal neighbours and whether each pair merges alone
//   - list_configs: available board configurations
//   - game_instructions: the rules
//   - describe_cell: one cell's coin, successor and equal neighbours
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount client.HTTPHandler() at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	apiServer.Handle("/mcp", client.HTTPHandler())
package mcp
