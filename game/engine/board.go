package engine

import (
	"fmt"
	"math/rand/v2"
)

// index maps row/col to the flat tile index
func (b *Board) index(row, col int) (int, bool) {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return 0, false
	}
	idx := row*b.Cols + col
	if idx >= len(b.Tiles) {
		return 0, false
	}
	return idx, true
}

// At returns the tile at row/col
func (b *Board) At(row, col int) (*Tile, bool) {
	idx, ok := b.index(row, col)
	if !ok {
		return nil, false
	}
	return &b.Tiles[idx], true
}

// Coords maps a flat index back to row/col
func (b *Board) Coords(idx int) (int, int) {
	return idx / b.Cols, idx % b.Cols
}

// clone returns a deep copy of the board
func (b *Board) clone() Board {
	tiles := make([]Tile, len(b.Tiles))
	copy(tiles, b.Tiles)
	return Board{Rows: b.Rows, Cols: b.Cols, Tiles: tiles}
}

// CountSymbols counts real tiles per symbol
func CountSymbols(board *Board) map[string]int {
	counts := make(map[string]int)
	for _, t := range board.Tiles {
		if t.Filler {
			continue
		}
		counts[t.Symbol]++
	}
	return counts
}

// CountRemaining counts real tiles still on the board
func CountRemaining(board *Board) int {
	n := 0
	for _, t := range board.Tiles {
		if !t.Filler && !t.Matched {
			n++
		}
	}
	return n
}

// GenerateBoard scatters CopiesPerSymbol copies of every symbol across the
// configured regions and packs them row-major, padding the last row with filler.
func GenerateBoard(config *GameConfig, rng *rand.Rand) Board {
	symbols := make([]string, 0, len(config.Symbols)*config.CopiesPerSymbol)
	for _, s := range config.Symbols {
		for i := 0; i < config.CopiesPerSymbol; i++ {
			symbols = append(symbols, s)
		}
	}
	rng.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	cols := config.Columns
	rows := (len(symbols) + cols - 1) / cols
	tiles := make([]Tile, rows*cols)

	for i, symbol := range symbols {
		region := config.Regions[rng.IntN(len(config.Regions))]
		tiles[i] = Tile{
			ID:     fmt.Sprintf("tile-%d", i),
			Symbol: symbol,
			Position: Position{
				X: region.MinX + rng.Float64()*(region.MaxX-region.MinX),
				Y: region.MinY + rng.Float64()*(region.MaxY-region.MinY),
			},
			Rotation: rng.Float64() * 360,
			Shape:    rng.IntN(ShapeVariants),
		}
	}

	for i := len(symbols); i < len(tiles); i++ {
		row, col := i/cols, i%cols
		tiles[i] = Tile{
			ID:      fmt.Sprintf("empty-%d-%d", row, col),
			Matched: true,
			Filler:  true,
		}
	}

	board := Board{Rows: rows, Cols: cols, Tiles: tiles}
	mustHaveSymbolCounts(&board, config)
	return board
}

// mustHaveSymbolCounts panics when generation broke the per-symbol invariant
func mustHaveSymbolCounts(board *Board, config *GameConfig) {
	counts := CountSymbols(board)
	if len(counts) != len(config.Symbols) {
		panic(fmt.Sprintf("engine: generated %d distinct symbols, want %d", len(counts), len(config.Symbols)))
	}
	for _, s := range config.Symbols {
		if counts[s] != config.CopiesPerSymbol {
			panic(fmt.Sprintf("engine: symbol %q appears %d times, want %d", s, counts[s], config.CopiesPerSymbol))
		}
	}
}
