// Package strategy picks tiles for automated players.
package strategy

import "github.com/wricardo/mcp-training/tilematch/game/engine"

// Greedy picks the next tile to select. It prefers a symbol already held in
// the slots, since a held pair plus one open copy completes a triple, and
// otherwise the symbol with the most open copies on the board. Ties go to the
// earliest cell in row-major order. It returns false when nothing can be
// picked.
func Greedy(state *engine.GameState) (engine.Cell, bool) {
	cells := state.Selectable()
	if len(cells) == 0 {
		return engine.Cell{}, false
	}
	return greedyAmong(state, cells), true
}

// greedyAmong ranks a non-empty list of cells
func greedyAmong(state *engine.GameState, cells []engine.Cell) engine.Cell {
	held := map[string]int{}
	for _, s := range state.Slots {
		if s != nil {
			held[s.Symbol]++
		}
	}

	open := map[string]int{}
	for _, c := range cells {
		tile, _ := state.TileAt(c.Row, c.Col)
		open[tile.Symbol]++
	}

	best := cells[0]
	bestScore := -1
	for _, c := range cells {
		tile, _ := state.TileAt(c.Row, c.Col)
		score := held[tile.Symbol]*100 + open[tile.Symbol]
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// Risky reports whether picking cell would fill the last free slot without
// completing a triple, which loses the game on the following pick.
func Risky(state *engine.GameState, cell engine.Cell) bool {
	if state.EmptySlots() != 1 {
		return false
	}
	tile, ok := state.TileAt(cell.Row, cell.Col)
	if !ok {
		return false
	}
	held := 0
	for _, s := range state.Slots {
		if s != nil && s.Symbol == tile.Symbol {
			held++
		}
	}
	return held < engine.CopiesPerSymbol-1
}
