// Package websocket provides WebSocket push updates for the Tile Match game.
//
// The package uses a hub-and-spoke model where a central Hub owns all
// connections. Each client has a read pump and a write pump goroutine; the
// hub's Run loop is the only goroutine touching the session map, so
// registration, removal, broadcasts and client counts all travel over
// channels.
//
// Message Protocol:
//
// Clients connect to /ws?session=<id> and receive one JSON message per state
// change:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//
// Updates come from two places: the REST handlers after a selection or
// restart, and the session manager after a delayed clear, which reaches the
// hub through its BroadcastToSession method. Incoming client messages are
// read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	sessions := session.NewManager(session.WithNotifier(hub))
//
// BroadcastToSession never blocks. When the queue is full the update is
// dropped and logged.
package websocket
