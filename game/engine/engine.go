package engine

import (
	"math/rand/v2"
	"sync"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Restart() *GameState
	Status() Status
	IsGameOver() bool
	IsVictory() bool
	GetMatchedCount() int
	GetTotalTiles() int

	// Tile operations
	SelectTile(row, col int) SelectResult
	IsBlocked(row, col int) bool
	SelectableTiles() []Cell

	// Configuration
	GetConfig() *GameConfig

	// Lifecycle
	Close()
}

// StateListener receives a snapshot after every deferred transition
type StateListener func(state *GameState)

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRand sets the random source used for board generation
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithScheduler sets the scheduler used for the clear delay
func WithScheduler(s Scheduler) Option {
	return func(e *GameEngine) {
		e.scheduler = s
	}
}

// WithStateListener registers a callback for asynchronous state changes
func WithStateListener(l StateListener) Option {
	return func(e *GameEngine) {
		e.listener = l
	}
}

// GameEngine implements the Engine interface.
//
// The clear-delay timer fires on its own goroutine, so every access to the
// board, slots and counters happens under mu.
type GameEngine struct {
	mu        sync.Mutex
	config    *GameConfig
	rng       *rand.Rand
	scheduler Scheduler
	listener  StateListener

	board        Board
	slots        Slots
	matchedCount int
	totalTiles   int
	status       Status
	pending      *MatchGroup
	timer        Timer
	epoch        int
	selections   int
	message      string
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:    config,
		scheduler: realScheduler{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e.reset()
	e.message = config.Messages.Welcome
	if e.message == "" {
		e.message = config.statusMessage(0, e.totalTiles)
	}
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in theme
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultConfig(), opts...)
	if err != nil {
		panic("engine: default config is invalid: " + err.Error())
	}
	return e
}

// reset discards all state and deals a fresh board. Callers hold mu.
func (e *GameEngine) reset() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.epoch++
	e.board = GenerateBoard(e.config, e.rng)
	e.slots = NewSlots(e.config.SlotCount)
	e.matchedCount = 0
	e.totalTiles = e.config.TotalTiles()
	e.status = Playing
	e.pending = nil
	e.selections = 0
	e.message = e.config.statusMessage(0, e.totalTiles)
}

// GetState returns a deep snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// snapshot copies the live state and fills in derived blocked flags. Callers hold mu.
func (e *GameEngine) snapshot() *GameState {
	board := e.board.clone()
	for i := range board.Tiles {
		row, col := e.board.Coords(i)
		board.Tiles[i].Blocked = IsBlocked(&e.board, row, col, e.config.TileSize, e.config.OverlapThreshold)
	}

	var pending *MatchGroup
	if e.pending != nil {
		indices := make([]int, len(e.pending.SlotIndices))
		copy(indices, e.pending.SlotIndices)
		pending = &MatchGroup{Symbol: e.pending.Symbol, SlotIndices: indices}
	}

	return &GameState{
		Board:        board,
		Slots:        e.slots.clone(),
		MatchedCount: e.matchedCount,
		TotalTiles:   e.totalTiles,
		Status:       e.status,
		Outcome:      e.status.Outcome(),
		PendingMatch: pending,
		Epoch:        e.epoch,
		Selections:   e.selections,
		Message:      e.message,
		ConfigName:   e.config.Name,
	}
}

// Restart discards the current game and deals a new one, whatever the status
func (e *GameEngine) Restart() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	return e.snapshot()
}

// Status returns the current state machine status
func (e *GameEngine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// IsGameOver returns whether the game reached a terminal state
func (e *GameEngine) IsGameOver() bool {
	s := e.Status()
	return s == Won || s == Lost
}

// IsVictory returns whether every tile has been cleared
func (e *GameEngine) IsVictory() bool {
	return e.Status() == Won
}

// GetMatchedCount returns the number of cleared tiles
func (e *GameEngine) GetMatchedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchedCount
}

// GetTotalTiles returns the number of real tiles dealt
func (e *GameEngine) GetTotalTiles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalTiles
}

// GetConfig returns the engine's theme
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// IsBlocked reports whether the tile at row/col cannot currently be selected
func (e *GameEngine) IsBlocked(row, col int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return IsBlocked(&e.board, row, col, e.config.TileSize, e.config.OverlapThreshold)
}

// SelectableTiles lists every cell whose tile could be selected now
func (e *GameEngine) SelectableTiles() []Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return selectableCells(&e.board, e.config)
}

// SelectTile moves the tile at row/col into the first free slot.
//
// Selections are ignored while a match is being cleared, after the game has
// ended, and for out-of-range, matched or blocked tiles. Selecting with every
// slot taken ends the game.
func (e *GameEngine) SelectTile(row, col int) SelectResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := SelectResult{Row: row, Col: col, SlotIndex: -1}
	ignore := func(reason IgnoreReason) SelectResult {
		result.Reason = reason
		result.Status = e.status
		return result
	}

	tile, ok := e.board.At(row, col)
	if !ok {
		return ignore(ReasonOutOfRange)
	}
	if tile.Matched {
		return ignore(ReasonMatched)
	}
	if IsBlocked(&e.board, row, col, e.config.TileSize, e.config.OverlapThreshold) {
		return ignore(ReasonBlocked)
	}
	switch e.status {
	case AwaitingClear:
		return ignore(ReasonClearing)
	case Won, Lost:
		return ignore(ReasonGameOver)
	}

	result.Symbol = tile.Symbol
	if e.slots.Full() {
		e.status = Lost
		e.message = e.config.slotFullMessage()
		result.Lost = true
		result.Status = e.status
		return result
	}

	tile.Matched = true
	idx, _ := e.slots.Place(*tile, row, col)
	e.selections++
	result.Accepted = true
	result.SlotIndex = idx

	if match := e.slots.ScanForMatch(); match != nil {
		e.pending = match
		e.status = AwaitingClear
		e.message = e.config.matchedMessage(match.Symbol)
		result.Match = &MatchGroup{Symbol: match.Symbol, SlotIndices: append([]int(nil), match.SlotIndices...)}

		epoch := e.epoch
		e.timer = e.scheduler.AfterFunc(e.config.ClearDelay(), func() {
			e.clearMatch(epoch)
		})
	} else {
		e.message = e.config.statusMessage(e.matchedCount, e.totalTiles)
	}

	result.Status = e.status
	return result
}

// clearMatch resolves the pending match scheduled during epoch.
// Callbacks from a previous epoch do nothing.
func (e *GameEngine) clearMatch(epoch int) {
	e.mu.Lock()
	if epoch != e.epoch || e.status != AwaitingClear || e.pending == nil {
		e.mu.Unlock()
		return
	}

	e.slots.Clear(e.pending.SlotIndices...)
	e.matchedCount += CopiesPerSymbol
	e.pending = nil
	e.timer = nil

	if e.matchedCount == e.totalTiles {
		e.status = Won
		e.message = e.config.victoryMessage()
	} else {
		e.status = Playing
		e.message = e.config.statusMessage(e.matchedCount, e.totalTiles)
	}

	listener := e.listener
	var state *GameState
	if listener != nil {
		state = e.snapshot()
	}
	e.mu.Unlock()

	if listener != nil {
		listener(state)
	}
}

// Close stops any pending clear so the engine can be discarded
func (e *GameEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.epoch++
}
