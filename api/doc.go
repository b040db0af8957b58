// Package api provides HTTP REST API handlers for the Tile Match game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/select - Pick a tile ({"row": 0, "col": 3})
//   - POST /api/sessions/{id}/restart - Deal a fresh board
//   - GET /api/sessions/{id}/history - Selection log (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/tiles/{row}/{col} - One tile with its blocked flag
//
// Configuration:
//   - GET /api/configs - List themes
//   - POST /api/configs - Save a theme (?id=<file name>, defaults to the theme name)
//   - GET /api/configs/{name} - Get a theme
//
// Other:
//   - GET /api/health - Liveness probe
//   - GET /ws?session={id} - WebSocket push updates
//
// Request/Response Format:
//
// All endpoints accept and return JSON. A selection always answers 200 when
// the session exists; an ignored click reports accepted=false and a reason
// (out_of_range, matched, blocked, clearing, game_over) instead of failing.
//
// After a selection or restart the new state is pushed to the session's
// WebSocket clients. The state after a delayed clear is pushed by the
// session manager.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the service
// error: 404 for unknown sessions or themes, 400 for invalid input, 409 for
// duplicate sessions and 500 otherwise.
//
//	{
//	  "error": "error message"
//	}
package api
