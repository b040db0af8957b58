package engine

import "math"

// Rect is an axis-aligned rectangle in board coordinates
type Rect struct {
	Left, Top, Right, Bottom float64
}

// TileRect returns the square a tile occupies
func TileRect(t Tile, size float64) Rect {
	return Rect{
		Left:   t.Position.X,
		Top:    t.Position.Y,
		Right:  t.Position.X + size,
		Bottom: t.Position.Y + size,
	}
}

// Intersects reports whether two rectangles touch or overlap.
// Shared edges count as touching.
func (r Rect) Intersects(o Rect) bool {
	return !(r.Right < o.Left || r.Left > o.Right || r.Bottom < o.Top || r.Top > o.Bottom)
}

// IntersectionArea returns the area shared by two rectangles, or 0
func (r Rect) IntersectionArea(o Rect) float64 {
	w := math.Min(r.Right, o.Right) - math.Max(r.Left, o.Left)
	h := math.Min(r.Bottom, o.Bottom) - math.Max(r.Top, o.Top)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Overlaps reports whether two tiles cover each other by more than threshold².
// Grazing contact never counts.
func Overlaps(a, b Tile, size, threshold float64) bool {
	ra, rb := TileRect(a, size), TileRect(b, size)
	if !ra.Intersects(rb) {
		return false
	}
	return ra.IntersectionArea(rb) > threshold*threshold
}

// IsBlocked reports whether the tile at row/col cannot be selected.
//
// Matched tiles are always blocked. An unmatched tile is blocked when any
// other unmatched tile overlaps it and sits at or above it (y less than or
// equal). Two overlapping tiles at the same height therefore block each other.
func IsBlocked(board *Board, row, col int, size, threshold float64) bool {
	idx, ok := board.index(row, col)
	if !ok {
		return true
	}
	tile := board.Tiles[idx]
	if tile.Matched {
		return true
	}

	for i := range board.Tiles {
		if i == idx {
			continue
		}
		other := board.Tiles[i]
		if other.Matched {
			continue
		}
		if other.Position.Y <= tile.Position.Y && Overlaps(tile, other, size, threshold) {
			return true
		}
	}
	return false
}

// MutualBlocks returns index pairs of unmatched tiles at equal height that block each other
func MutualBlocks(board *Board, size, threshold float64) [][2]int {
	var pairs [][2]int
	for i := range board.Tiles {
		a := board.Tiles[i]
		if a.Matched {
			continue
		}
		for j := i + 1; j < len(board.Tiles); j++ {
			b := board.Tiles[j]
			if b.Matched || a.Position.Y != b.Position.Y {
				continue
			}
			if Overlaps(a, b, size, threshold) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// selectableCells lists cells of tiles that are not blocked
func selectableCells(board *Board, config *GameConfig) []Cell {
	var out []Cell
	for i := range board.Tiles {
		row, col := board.Coords(i)
		if !IsBlocked(board, row, col, config.TileSize, config.OverlapThreshold) {
			out = append(out, Cell{Row: row, Col: col})
		}
	}
	return out
}
