// Package terminal plays CoinCraze in a terminal.
//
// Play drives a local engine. Keyboard: arrow keys move the cursor, space
// begins or extends the chain at the cursor, enter completes it, esc
// cancels, r starts a new game and q quits. Mouse: press on a coin to begin,
// drag across equal neighbours to extend and release to complete.
//
// Watch follows a session on a running server read-only: it fetches the
// state once over the REST API, then applies the session's WebSocket feed.
//
// Short sine tones mark a merge, a failed chain and a level-up. Without an
// audio device the game plays silently.
package terminal
