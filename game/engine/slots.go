package engine

// Slots is the fixed row of holding positions. A nil entry is empty.
type Slots []*SlotTile

// NewSlots returns n empty slots
func NewSlots(n int) Slots {
	return make(Slots, n)
}

// FirstEmpty returns the lowest empty index, or -1 when full
func (s Slots) FirstEmpty() int {
	for i, slot := range s {
		if slot == nil {
			return i
		}
	}
	return -1
}

// Full reports whether no slot is free
func (s Slots) Full() bool {
	return s.FirstEmpty() == -1
}

// Place puts a tile into the first empty slot.
// It returns false without modifying anything when every slot is taken.
func (s Slots) Place(tile Tile, row, col int) (int, bool) {
	idx := s.FirstEmpty()
	if idx < 0 {
		return -1, false
	}
	s[idx] = &SlotTile{
		TileID:    tile.ID,
		Symbol:    tile.Symbol,
		SlotIndex: idx,
		Row:       row,
		Col:       col,
	}
	return idx, true
}

// ScanForMatch groups occupied slots by symbol and returns the first symbol,
// ordered by its earliest slot, that has at least three members. Only the
// first three slot indices are reported.
func (s Slots) ScanForMatch() *MatchGroup {
	groups := make(map[string][]int)
	var order []string
	for i, slot := range s {
		if slot == nil {
			continue
		}
		if _, seen := groups[slot.Symbol]; !seen {
			order = append(order, slot.Symbol)
		}
		groups[slot.Symbol] = append(groups[slot.Symbol], i)
	}

	for _, symbol := range order {
		if indices := groups[symbol]; len(indices) >= CopiesPerSymbol {
			picked := make([]int, CopiesPerSymbol)
			copy(picked, indices[:CopiesPerSymbol])
			return &MatchGroup{Symbol: symbol, SlotIndices: picked}
		}
	}
	return nil
}

// Clear empties the listed slots. Empty or out-of-range indices are ignored.
func (s Slots) Clear(indices ...int) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(s) {
			continue
		}
		s[idx] = nil
	}
}

// clone copies the slot records
func (s Slots) clone() []*SlotTile {
	out := make([]*SlotTile, len(s))
	for i, slot := range s {
		if slot != nil {
			c := *slot
			out[i] = &c
		}
	}
	return out
}
