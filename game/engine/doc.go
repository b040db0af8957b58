// Package engine provides the core game logic for the Tile Match game.
//
// The engine package implements the game mechanics including:
//   - Board generation with tiles scattered over named regions
//   - Overlap-based occlusion deciding which tiles can be picked
//   - A fixed row of holding slots and three-of-a-kind detection
//   - The turn state machine with a delayed clear of matched slots
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is a read-only snapshot handed to
// renderers, while GameConfig defines the symbols, layout and timing loaded
// from JSON theme files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Pick the tile in row 0, column 3
//	result := gameEngine.SelectTile(0, 3)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// A tile can be picked only when no other uncleared tile sits at or above it
// and covers more than overlap_threshold² of its area. Picked tiles go to the
// first free slot. Three equal symbols in the slots are cleared after
// clear_delay_ms, during which further picks are ignored. Clearing every tile
// wins; picking with all slots taken and no triple loses.
//
// Concurrency:
//
// The clear delay runs on a timer goroutine, so GameEngine serializes all
// access with a mutex. Restart bumps an epoch counter and stops the timer;
// a clear callback from an older epoch does nothing.
package engine
