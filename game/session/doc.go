// Package session provides in-memory session management for CoinCraze.
//
// Manager stores one service.Session per ID, each with its own engine. IDs are
// matched case-insensitively; empty IDs are replaced by a random 4-character
// hex ID drawn from crypto/rand.
//
// The manager is safe for concurrent use. It guards its map only: engines are
// not safe for concurrent use and the service layer serializes calls into them.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Drop sessions idle for an hour, checking every ten minutes
//	manager.StartCleanup(ctx, 10*time.Minute, time.Hour)
//
// Sessions live only as long as the process.
package session
