// Package config provides theme management for the Tile Match game.
//
// The config package handles:
//   - Loading themes from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default theme selection
//   - Theme discovery and listing
//
// Theme Format:
//
// Themes are stored as JSON files in the configs directory. Each theme
// defines the symbol set, the number of board columns and holding slots,
// the tile size and overlap threshold used for occlusion, the clear delay,
// the named regions tiles are scattered into, and the status messages.
//
// Themes change the look of a game, not its rules: every symbol still
// appears exactly three times.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("orchard")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic.json when present, otherwise the first valid theme
// in the directory, otherwise the built-in theme from engine.DefaultConfig.
package config
