package engine

// Status represents the engine's position in the turn state machine
type Status string

const (
	Playing       Status = "playing"
	AwaitingClear Status = "awaiting_clear"
	Won           Status = "won"
	Lost          Status = "lost"

	// Validation constants
	CopiesPerSymbol = 3
	MaxSymbols      = 16
	MaxColumns      = 16
	MaxSlots        = 32
	ShapeVariants   = 4
)

// Outcome folds the state machine into the result a player sees: a clear
// in progress still counts as playing.
func (s Status) Outcome() Status {
	if s == AwaitingClear {
		return Playing
	}
	return s
}

// Position represents continuous board coordinates of a tile's top-left corner
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell addresses a tile on the board grid
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile represents a single board piece
type Tile struct {
	ID       string   `json:"id"`
	Symbol   string   `json:"symbol"`
	Matched  bool     `json:"matched"`
	Filler   bool     `json:"filler,omitempty"`
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
	Shape    int      `json:"shape"`

	// Blocked is derived when a snapshot is taken and never stored on the live board
	Blocked bool `json:"blocked"`
}

// Board is a row-major grid of tiles
type Board struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Tiles []Tile `json:"tiles"`
}

// SlotTile is the record kept in a holding slot
type SlotTile struct {
	TileID    string `json:"tile_id"`
	Symbol    string `json:"symbol"`
	SlotIndex int    `json:"slot_index"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

// MatchGroup names three slots sharing a symbol
type MatchGroup struct {
	Symbol      string `json:"symbol"`
	SlotIndices []int  `json:"slot_indices"`
}

// Region is a named rectangle tiles may be scattered into
type Region struct {
	Name string  `json:"name"`
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// GameConfig represents a game theme loaded from JSON
type GameConfig struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Symbols          []string `json:"symbols"`
	CopiesPerSymbol  int      `json:"copies_per_symbol"`
	Columns          int      `json:"columns"`
	SlotCount        int      `json:"slot_count"`
	TileSize         float64  `json:"tile_size"`
	OverlapThreshold float64  `json:"overlap_threshold"`
	ClearDelayMS     int      `json:"clear_delay_ms"`
	Regions          []Region `json:"regions"`
	Messages         struct {
		Welcome  string `json:"welcome"`
		Status   string `json:"status"`
		Matched  string `json:"matched"`
		Victory  string `json:"victory"`
		SlotFull string `json:"slots_full"`
	} `json:"messages"`
}

// GameState is a read-only snapshot of an engine
type GameState struct {
	Board        Board       `json:"board"`
	Slots        []*SlotTile `json:"slots"`
	MatchedCount int         `json:"matched_count"`
	TotalTiles   int         `json:"total_tiles"`
	Status       Status      `json:"status"`
	Outcome      Status      `json:"outcome"`
	PendingMatch *MatchGroup `json:"pending_match,omitempty"`
	Epoch        int         `json:"epoch"`
	Selections   int         `json:"selections"`
	Message      string      `json:"message"`
	ConfigName   string      `json:"config_name"`
}

// GameOver reports whether the snapshot is in a terminal state
func (gs *GameState) GameOver() bool {
	return gs.Status == Won || gs.Status == Lost
}

// Victory reports whether every tile has been cleared
func (gs *GameState) Victory() bool {
	return gs.Status == Won
}

// TileAt returns the tile at row/col of the snapshot
func (gs *GameState) TileAt(row, col int) (Tile, bool) {
	idx, ok := gs.Board.index(row, col)
	if !ok {
		return Tile{}, false
	}
	return gs.Board.Tiles[idx], true
}

// Selectable lists cells whose tiles are neither matched nor blocked
func (gs *GameState) Selectable() []Cell {
	var out []Cell
	for i, t := range gs.Board.Tiles {
		if !t.Matched && !t.Blocked {
			row, col := gs.Board.Coords(i)
			out = append(out, Cell{Row: row, Col: col})
		}
	}
	return out
}

// EmptySlots counts free holding slots
func (gs *GameState) EmptySlots() int {
	n := 0
	for _, s := range gs.Slots {
		if s == nil {
			n++
		}
	}
	return n
}

// IgnoreReason explains why a selection had no effect
type IgnoreReason string

const (
	ReasonNone       IgnoreReason = ""
	ReasonOutOfRange IgnoreReason = "out_of_range"
	ReasonMatched    IgnoreReason = "matched"
	ReasonBlocked    IgnoreReason = "blocked"
	ReasonClearing   IgnoreReason = "clearing"
	ReasonGameOver   IgnoreReason = "game_over"
)

// SelectResult describes what a single selection did
type SelectResult struct {
	Accepted  bool         `json:"accepted"`
	Reason    IgnoreReason `json:"reason,omitempty"`
	Row       int          `json:"row"`
	Col       int          `json:"col"`
	Symbol    string       `json:"symbol,omitempty"`
	SlotIndex int          `json:"slot_index"`
	Match     *MatchGroup  `json:"match,omitempty"`
	Lost      bool         `json:"lost,omitempty"`
	Status    Status       `json:"status"`
}
