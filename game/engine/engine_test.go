package engine

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// spreadBoard lays symbols out row-major with gaps so no two tiles overlap
func spreadBoard(symbols []string, cols int) Board {
	rows := (len(symbols) + cols - 1) / cols
	tiles := make([]Tile, rows*cols)
	for i := range tiles {
		row, col := i/cols, i%cols
		if i >= len(symbols) {
			tiles[i] = Tile{ID: fmt.Sprintf("empty-%d-%d", row, col), Matched: true, Filler: true}
			continue
		}
		tiles[i] = Tile{
			ID:       fmt.Sprintf("tile-%d", i),
			Symbol:   symbols[i],
			Position: Position{X: float64(col) * 150, Y: float64(row) * 150},
		}
	}
	return Board{Rows: rows, Cols: cols, Tiles: tiles}
}

// newTestEngine builds an engine on the default theme with a hand-made board
func newTestEngine(t *testing.T, symbols []string, opts ...Option) (*GameEngine, *ManualScheduler) {
	t.Helper()
	sched := &ManualScheduler{}
	opts = append([]Option{WithRand(seededRand(1)), WithScheduler(sched)}, opts...)
	e, err := NewEngine(DefaultConfig(), opts...)
	require.NoError(t, err)

	e.board = spreadBoard(symbols, e.config.Columns)
	e.totalTiles = len(symbols)
	return e, sched
}

func stateJSON(t *testing.T, e *GameEngine) string {
	t.Helper()
	data, err := json.Marshal(e.GetState())
	require.NoError(t, err)
	return string(data)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), WithRand(seededRand(7)))
	require.NoError(t, err)

	state := e.GetState()
	assert.Equal(t, Playing, state.Status)
	assert.Equal(t, 0, state.MatchedCount)
	assert.Equal(t, 24, state.TotalTiles)
	assert.Len(t, state.Slots, 7)
	assert.Equal(t, 7, state.EmptySlots())
	assert.Equal(t, 3, state.Board.Rows)
	assert.Equal(t, 8, state.Board.Cols)
	assert.Equal(t, DefaultConfig().Messages.Welcome, state.Message)
	assert.False(t, e.IsGameOver())
	assert.False(t, e.IsVictory())
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Name = ""

	_, err := NewEngine(config)
	assert.Error(t, err)
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	require.NotNil(t, e)
	assert.Equal(t, 24, e.GetTotalTiles())
	assert.Equal(t, "classic", e.GetConfig().Name)
}

func TestSelectTile_ThreeOfAKindClearsAfterDelay(t *testing.T) {
	symbols := []string{"🍎", "🍌", "🍎", "🍇", "🍎", "🍌", "🍇", "🍌", "🍇"}
	e, sched := newTestEngine(t, symbols)

	r := e.SelectTile(0, 0)
	require.True(t, r.Accepted)
	assert.Equal(t, 0, r.SlotIndex)
	assert.Nil(t, r.Match)

	r = e.SelectTile(0, 2)
	require.True(t, r.Accepted)
	assert.Equal(t, 1, r.SlotIndex)

	r = e.SelectTile(0, 4)
	require.True(t, r.Accepted)
	assert.Equal(t, 2, r.SlotIndex)
	require.NotNil(t, r.Match)
	assert.Equal(t, "🍎", r.Match.Symbol)
	assert.Equal(t, []int{0, 1, 2}, r.Match.SlotIndices)
	assert.Equal(t, AwaitingClear, r.Status)

	state := e.GetState()
	require.NotNil(t, state.PendingMatch)
	assert.Equal(t, []int{0, 1, 2}, state.PendingMatch.SlotIndices)
	assert.Equal(t, 0, state.MatchedCount)
	assert.Equal(t, AwaitingClear, state.Status)
	assert.Equal(t, Playing, state.Outcome, "a pending clear is still playing")
	assert.Equal(t, 1, sched.Pending())

	assert.Equal(t, 1, sched.RunPending())

	state = e.GetState()
	assert.Equal(t, Playing, state.Status)
	assert.Equal(t, Playing, state.Outcome)
	assert.Equal(t, 3, state.MatchedCount)
	assert.Nil(t, state.PendingMatch)
	assert.Equal(t, 7, state.EmptySlots())
	for _, c := range []Cell{{0, 0}, {0, 2}, {0, 4}} {
		tile, ok := state.TileAt(c.Row, c.Col)
		require.True(t, ok)
		assert.True(t, tile.Matched)
	}
}

func TestSelectTile_WinsWhenLastTripleClears(t *testing.T) {
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎"})

	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	r := e.SelectTile(0, 2)
	require.NotNil(t, r.Match)

	sched.RunPending()

	state := e.GetState()
	assert.Equal(t, Won, state.Status)
	assert.Equal(t, Won, state.Outcome)
	assert.Equal(t, state.TotalTiles, state.MatchedCount)
	assert.True(t, e.IsVictory())
	assert.True(t, e.IsGameOver())
	assert.Equal(t, DefaultConfig().Messages.Victory, state.Message)
}

func TestSelectTile_FullSlotsLoses(t *testing.T) {
	symbols := []string{"🍎", "🍌", "🍇", "🍊", "🍓", "🍐", "🥝", "🍋"}
	e, sched := newTestEngine(t, symbols)

	for col := 0; col < 7; col++ {
		r := e.SelectTile(0, col)
		require.True(t, r.Accepted, "selection %d", col)
		assert.Equal(t, col, r.SlotIndex)
	}
	assert.Equal(t, Playing, e.Status())
	assert.Equal(t, 0, sched.Pending())

	before := e.GetState()
	r := e.SelectTile(0, 7)
	assert.False(t, r.Accepted)
	assert.True(t, r.Lost)
	assert.Equal(t, Lost, r.Status)

	after := e.GetState()
	assert.Equal(t, Lost, after.Status)
	assert.Equal(t, Lost, after.Outcome)
	assert.Equal(t, before.Slots, after.Slots)
	tile, _ := after.TileAt(0, 7)
	assert.False(t, tile.Matched, "the losing tile stays on the board")
	assert.Equal(t, DefaultConfig().Messages.SlotFull, after.Message)

	r = e.SelectTile(0, 7)
	assert.Equal(t, ReasonGameOver, r.Reason)
}

func TestSelectTile_IgnoredWhileAwaitingClear(t *testing.T) {
	symbols := []string{"🍎", "🍎", "🍎", "🍌", "🍇"}
	e, _ := newTestEngine(t, symbols)

	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)
	require.Equal(t, AwaitingClear, e.Status())

	before := stateJSON(t, e)
	r := e.SelectTile(0, 3)
	assert.False(t, r.Accepted)
	assert.Equal(t, ReasonClearing, r.Reason)
	assert.Equal(t, before, stateJSON(t, e))
}

func TestSelectTile_NoOps(t *testing.T) {
	symbols := []string{"🍎", "🍌", "🍇"}

	tests := []struct {
		name     string
		row, col int
		reason   IgnoreReason
	}{
		{"negative row", -1, 0, ReasonOutOfRange},
		{"negative col", 0, -1, ReasonOutOfRange},
		{"row past end", 5, 0, ReasonOutOfRange},
		{"col past end", 0, 8, ReasonOutOfRange},
		{"filler cell", 0, 5, ReasonMatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, symbols)
			before := stateJSON(t, e)

			r := e.SelectTile(tt.row, tt.col)
			assert.False(t, r.Accepted)
			assert.Equal(t, tt.reason, r.Reason)
			assert.Equal(t, before, stateJSON(t, e))
		})
	}
}

func TestSelectTile_AlreadyMatched(t *testing.T) {
	e, _ := newTestEngine(t, []string{"🍎", "🍌", "🍇"})

	require.True(t, e.SelectTile(0, 0).Accepted)
	r := e.SelectTile(0, 0)
	assert.False(t, r.Accepted)
	assert.Equal(t, ReasonMatched, r.Reason)
	assert.Equal(t, 1, e.GetState().Selections)
}

func TestSelectTile_BlockedTile(t *testing.T) {
	e, _ := newTestEngine(t, []string{"🍎", "🍌", "🍇"})
	// put the banana on top of the apple
	e.board.Tiles[1].Position = Position{X: 10, Y: -10}

	r := e.SelectTile(0, 0)
	assert.False(t, r.Accepted)
	assert.Equal(t, ReasonBlocked, r.Reason)
	assert.True(t, e.IsBlocked(0, 0))

	require.True(t, e.SelectTile(0, 1).Accepted)
	assert.False(t, e.IsBlocked(0, 0), "removing the cover frees the tile below")
	assert.True(t, e.SelectTile(0, 0).Accepted)
}

func TestRestart(t *testing.T) {
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎", "🍌"})
	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)
	require.Equal(t, AwaitingClear, e.Status())
	epoch := e.GetState().Epoch

	state := e.Restart()
	assert.Equal(t, Playing, state.Status)
	assert.Equal(t, 0, state.MatchedCount)
	assert.Equal(t, 0, state.Selections)
	assert.Equal(t, 7, state.EmptySlots())
	assert.Nil(t, state.PendingMatch)
	assert.Equal(t, 24, state.TotalTiles)
	assert.Equal(t, epoch+1, state.Epoch)
	assert.Equal(t, 0, sched.Pending(), "restart stops the pending clear")

	counts := CountSymbols(&state.Board)
	assert.Len(t, counts, 8)
	for symbol, n := range counts {
		assert.Equal(t, 3, n, symbol)
	}
}

func TestRestart_StaleClearIsIgnored(t *testing.T) {
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎", "🍌"})
	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)

	e.Restart()
	before := stateJSON(t, e)

	// fire the callback even though its timer was stopped
	assert.Equal(t, 1, sched.RunAll())
	assert.Equal(t, before, stateJSON(t, e))
	assert.Equal(t, 0, e.GetMatchedCount())
}

func TestRestart_FromTerminalStates(t *testing.T) {
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎"})
	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)
	sched.RunPending()
	require.Equal(t, Won, e.Status())

	assert.Equal(t, Playing, e.Restart().Status)

	lost, _ := newTestEngine(t, []string{"🍎", "🍌", "🍇", "🍊", "🍓", "🍐", "🥝", "🍋"})
	for col := 0; col < 8; col++ {
		lost.SelectTile(0, col)
	}
	require.Equal(t, Lost, lost.Status())
	assert.Equal(t, Playing, lost.Restart().Status)
}

func TestStateListener_CalledAfterClear(t *testing.T) {
	var got []*GameState
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎", "🍌"}, WithStateListener(func(s *GameState) {
		got = append(got, s)
	}))

	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)
	assert.Empty(t, got)

	sched.RunPending()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].MatchedCount)
	assert.Equal(t, Playing, got[0].Status)
}

func TestGetState_IsDeepCopy(t *testing.T) {
	e, _ := newTestEngine(t, []string{"🍎", "🍌", "🍇"})
	e.SelectTile(0, 0)

	state := e.GetState()
	state.Board.Tiles[1].Matched = true
	state.Slots[0].Symbol = "x"
	state.Slots[1] = &SlotTile{Symbol: "y"}

	fresh := e.GetState()
	assert.False(t, fresh.Board.Tiles[1].Matched)
	assert.Equal(t, "🍎", fresh.Slots[0].Symbol)
	assert.Nil(t, fresh.Slots[1])
}

func TestSelectableTiles(t *testing.T) {
	e, _ := newTestEngine(t, []string{"🍎", "🍌", "🍇"})
	e.board.Tiles[1].Position = Position{X: 10, Y: -10}

	assert.Equal(t, []Cell{{Row: 0, Col: 1}, {Row: 0, Col: 2}}, e.SelectableTiles())
	assert.Equal(t, e.SelectableTiles(), e.GetState().Selectable())
}

func TestRealScheduler_ClearsAfterDelay(t *testing.T) {
	config := DefaultConfig()
	config.ClearDelayMS = 5
	e, err := NewEngine(config, WithRand(seededRand(3)))
	require.NoError(t, err)

	var mu sync.Mutex
	notified := false
	e.listener = func(*GameState) {
		mu.Lock()
		notified = true
		mu.Unlock()
	}

	e.mu.Lock()
	e.board = spreadBoard([]string{"🍎", "🍎", "🍎", "🍌"}, config.Columns)
	e.mu.Unlock()

	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)

	require.Eventually(t, func() bool {
		return e.GetMatchedCount() == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, Playing, e.Status())

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, notified)
}

func TestClose_StopsPendingClear(t *testing.T) {
	e, sched := newTestEngine(t, []string{"🍎", "🍎", "🍎", "🍌"})
	e.SelectTile(0, 0)
	e.SelectTile(0, 1)
	e.SelectTile(0, 2)

	e.Close()
	assert.Equal(t, 0, sched.Pending())
	sched.RunAll()
	assert.Equal(t, 0, e.GetMatchedCount())
}

func TestFullGame_GreedyPlayKeepsInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		sched := &ManualScheduler{}
		e, err := NewEngine(DefaultConfig(), WithRand(seededRand(seed)), WithScheduler(sched))
		require.NoError(t, err)

		for steps := 0; steps < 100 && !e.IsGameOver(); steps++ {
			cells := e.SelectableTiles()
			if len(cells) == 0 {
				break
			}
			e.SelectTile(cells[0].Row, cells[0].Col)
			sched.RunPending()

			state := e.GetState()
			assert.Zero(t, state.MatchedCount%3, "seed %d", seed)
			assert.LessOrEqual(t, state.MatchedCount, state.TotalTiles)
			assert.NotEqual(t, AwaitingClear, state.Status)
		}
	}
}

func TestStatus_Outcome(t *testing.T) {
	tests := []struct {
		status Status
		want   Status
	}{
		{Playing, Playing},
		{AwaitingClear, Playing},
		{Won, Won},
		{Lost, Lost},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Outcome())
		})
	}
}
