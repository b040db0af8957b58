// Package session provides session management for the Tile Match game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//   - Forwarding of asynchronous engine updates to a Notifier
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated from crypto/rand. Lookups are
// case-insensitive.
//
// Notifications:
//
// An engine changes state on its own when a matched triple is cleared after
// the clear delay. The manager registers a listener on every engine it
// creates and forwards those snapshots to the configured Notifier, which in
// the server is the WebSocket hub.
//
// Usage:
//
//	manager := session.NewManager(session.WithNotifier(hub))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Deleting a session stops its pending clear
//	manager.Delete(sess.ID)
//
// Sessions live in memory only and are lost on restart.
package session
