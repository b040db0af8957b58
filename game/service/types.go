package service

import (
	"time"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

// Event types reported with a selection
const (
	EventSelect   = "select"
	EventIgnored  = "ignored"
	EventMatch    = "match"
	EventGameOver = "game_over"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// SelectResult contains the result of a tile selection
type SelectResult struct {
	Success   bool                `json:"success"`
	Selection engine.SelectResult `json:"selection"`
	GameState *engine.GameState   `json:"game_state"`
	Message   string              `json:"message"`
	Events    []GameEvent         `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"` // "select", "ignored", "match", "game_over"
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Cell      *engine.Cell `json:"cell,omitempty"`
}

// SelectionEntry is one recorded click, accepted or not
type SelectionEntry struct {
	Seq       int                 `json:"seq"`
	Row       int                 `json:"row"`
	Col       int                 `json:"col"`
	Symbol    string              `json:"symbol,omitempty"`
	Accepted  bool                `json:"accepted"`
	Reason    engine.IgnoreReason `json:"reason,omitempty"`
	SlotIndex int                 `json:"slot_index"`
	Matched   string              `json:"matched,omitempty"`
	Status    engine.Status       `json:"status"`
	Epoch     int                 `json:"epoch"`
	Timestamp time.Time           `json:"timestamp"`
}

// HistoryOptions configures selection history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated selection history
type HistoryResponse struct {
	Selections      []SelectionEntry `json:"selections"`
	TotalSelections int              `json:"total_selections"`
	Page            int              `json:"page"`
	PageSize        int              `json:"page_size"`
	TotalPages      int              `json:"total_pages"`
	HasNext         bool             `json:"has_next"`
	HasPrevious     bool             `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Symbols     int    `json:"symbols"`
	TotalTiles  int    `json:"total_tiles"`
	Columns     int    `json:"columns"`
	SlotCount   int    `json:"slot_count"`
}
