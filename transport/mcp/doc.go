// Package mcp exposes the Tile Match REST API as Model Context Protocol tools.
//
// Client is a thin proxy: every tool call becomes one or two HTTP requests
// against a running game server, and the JSON replies are rendered as text
// an AI agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: slots, counters and the tiles that can be picked now
//   - select_tile: pick a tile by row/col, with an optional intent note
//   - restart_game: deal a fresh board in the same session
//   - selection_history: paginated log of picks, ignored ones included
//   - list_configs: available themes
//   - describe_tile: symbol, position and cover status of one tile
//   - game_instructions: rules and strategy notes
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal().Err(err).Msg("stdio server failed")
//	}
package mcp
