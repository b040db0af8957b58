package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultConfig returns the built-in fruit theme
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:             "classic",
		Description:      "Eight fruits, three of each, scattered around the meadow",
		Symbols:          []string{"🍎", "🍌", "🍇", "🍊", "🍓", "🍐", "🥝", "🍋"},
		CopiesPerSymbol:  CopiesPerSymbol,
		Columns:          8,
		SlotCount:        7,
		TileSize:         100,
		OverlapThreshold: 50,
		ClearDelayMS:     800,
		Regions: []Region{
			{Name: "left", MinX: 50, MaxX: 250, MinY: 100, MaxY: 600},
			{Name: "right", MinX: 650, MaxX: 850, MinY: 100, MaxY: 600},
			{Name: "top", MinX: 250, MaxX: 650, MinY: 50, MaxY: 200},
			{Name: "bottom", MinX: 250, MaxX: 650, MinY: 500, MaxY: 650},
			{Name: "center", MinX: 300, MaxX: 600, MinY: 250, MaxY: 450},
		},
	}
	config.Messages.Welcome = "Pick uncovered tiles and line up three of a kind!"
	config.Messages.Status = "Cleared: %d / %d"
	config.Messages.Matched = "Three %s!"
	config.Messages.Victory = "🎉 You cleared the board!"
	config.Messages.SlotFull = "Game over! The slots are full"
	return config
}

// ClearDelay returns the configured pause before a match is removed
func (c *GameConfig) ClearDelay() time.Duration {
	return time.Duration(c.ClearDelayMS) * time.Millisecond
}

// TotalTiles returns the number of real tiles a board will hold
func (c *GameConfig) TotalTiles() int {
	return len(c.Symbols) * c.CopiesPerSymbol
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Symbols) == 0 || len(config.Symbols) > MaxSymbols {
		return fmt.Errorf("config validation: symbols must contain between 1 and %d entries, got %d", MaxSymbols, len(config.Symbols))
	}
	seen := make(map[string]bool, len(config.Symbols))
	for i, s := range config.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("config validation: symbol %d is empty", i+1)
		}
		if seen[s] {
			return fmt.Errorf("config validation: symbol %q is listed twice", s)
		}
		seen[s] = true
	}

	if config.CopiesPerSymbol != CopiesPerSymbol {
		return fmt.Errorf("config validation: copies_per_symbol must be %d, got %d", CopiesPerSymbol, config.CopiesPerSymbol)
	}
	if config.Columns < 1 || config.Columns > MaxColumns {
		return fmt.Errorf("config validation: columns must be between 1 and %d, got %d", MaxColumns, config.Columns)
	}
	if config.SlotCount < CopiesPerSymbol || config.SlotCount > MaxSlots {
		return fmt.Errorf("config validation: slot_count must be between %d and %d, got %d", CopiesPerSymbol, MaxSlots, config.SlotCount)
	}

	if config.TileSize <= 0 {
		return fmt.Errorf("config validation: tile_size must be positive, got %g", config.TileSize)
	}
	if config.OverlapThreshold <= 0 || config.OverlapThreshold >= config.TileSize {
		return fmt.Errorf("config validation: overlap_threshold must be in (0, tile_size), got %g", config.OverlapThreshold)
	}
	if config.ClearDelayMS < 0 {
		return fmt.Errorf("config validation: clear_delay_ms must not be negative, got %d", config.ClearDelayMS)
	}

	if len(config.Regions) == 0 {
		return fmt.Errorf("config validation: at least one region is required")
	}
	for i, r := range config.Regions {
		if r.Name == "" {
			return fmt.Errorf("config validation: region %d has no name", i+1)
		}
		if r.MinX >= r.MaxX || r.MinY >= r.MaxY {
			return fmt.Errorf("config validation: region '%s' must have min < max on both axes", r.Name)
		}
	}

	if config.Messages.Status != "" && strings.Count(config.Messages.Status, "%d") != 2 {
		return fmt.Errorf("config validation: messages.status must contain %%d twice for cleared and total tiles")
	}
	if config.Messages.Matched != "" && strings.Count(config.Messages.Matched, "%s") != 1 {
		return fmt.Errorf("config validation: messages.matched must contain %%s for the symbol")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// statusMessage formats the running counter line
func (c *GameConfig) statusMessage(matched, total int) string {
	if c.Messages.Status == "" {
		return fmt.Sprintf("Cleared: %d / %d", matched, total)
	}
	return fmt.Sprintf(c.Messages.Status, matched, total)
}

// matchedMessage formats the line shown while a triple is pending
func (c *GameConfig) matchedMessage(symbol string) string {
	if c.Messages.Matched == "" {
		return fmt.Sprintf("Three %s!", symbol)
	}
	return fmt.Sprintf(c.Messages.Matched, symbol)
}

func (c *GameConfig) victoryMessage() string {
	if c.Messages.Victory == "" {
		return "You cleared the board!"
	}
	return c.Messages.Victory
}

func (c *GameConfig) slotFullMessage() string {
	if c.Messages.SlotFull == "" {
		return "Game over! The slots are full"
	}
	return c.Messages.SlotFull
}
