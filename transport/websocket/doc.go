// Package websocket fans out CoinCraze session updates to browser clients.
//
// A single Hub goroutine owns the client registry. Clients connect with
// ?session=<id> and receive every message published for that session:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "level_up", "data": {...}}
//
// Event names match the service events (merge_success, merge_failure,
// level_up, reshuffle, reset) plus state_update for full snapshots. Commands
// travel over HTTP; frames sent by clients are read only to keep the
// connection alive.
//
// Publishing never blocks: when the hub queue is full the message is dropped,
// and a client whose own buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
