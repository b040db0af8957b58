// Package service provides the business logic layer for the Tile Match game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Tile selection and restart
//   - A per-session log of every selection
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game theme loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance, so a pending
// clear in one session never affects another.
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
//	result, err := gameService.SelectTile(ctx, sessionInfo.ID, 0, 3)
//
// Errors:
//
// Lookups fail with errors wrapping ErrSessionNotFound or ErrConfigNotFound,
// which transports test with errors.Is.
package service
