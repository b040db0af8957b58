package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// SelectTile picks the tile at row/col for a session and records the click
func (s *gameServiceImpl) SelectTile(ctx context.Context, sessionID string, row, col int) (*SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("select tile in session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	selection := sess.Engine.SelectTile(row, col)
	state := sess.Engine.GetState()
	now := time.Now()

	entry := SelectionEntry{
		Seq:       len(sess.History) + 1,
		Row:       row,
		Col:       col,
		Symbol:    selection.Symbol,
		Accepted:  selection.Accepted,
		Reason:    selection.Reason,
		SlotIndex: selection.SlotIndex,
		Status:    selection.Status,
		Epoch:     state.Epoch,
		Timestamp: now,
	}
	if selection.Match != nil {
		entry.Matched = selection.Match.Symbol
	}
	sess.History = append(sess.History, entry)

	return &SelectResult{
		Success:   selection.Accepted,
		Selection: selection,
		GameState: state,
		Message:   state.Message,
		Events:    selectionEvents(selection, state, now),
	}, nil
}

// selectionEvents describes a single selection as a list of game events
func selectionEvents(sel engine.SelectResult, state *engine.GameState, at time.Time) []GameEvent {
	cell := &engine.Cell{Row: sel.Row, Col: sel.Col}

	if sel.Lost {
		return []GameEvent{{
			Type:      EventGameOver,
			Message:   state.Message,
			Timestamp: at,
			Cell:      cell,
		}}
	}
	if !sel.Accepted {
		return []GameEvent{{
			Type:      EventIgnored,
			Message:   fmt.Sprintf("Selection at (%d,%d) ignored: %s", sel.Row, sel.Col, sel.Reason),
			Timestamp: at,
			Cell:      cell,
		}}
	}

	events := []GameEvent{{
		Type:      EventSelect,
		Message:   fmt.Sprintf("Moved %s from (%d,%d) to slot %d", sel.Symbol, sel.Row, sel.Col, sel.SlotIndex+1),
		Timestamp: at,
		Cell:      cell,
	}}
	if sel.Match != nil {
		events = append(events, GameEvent{
			Type:      EventMatch,
			Message:   fmt.Sprintf("Three %s in slots %v, clearing", sel.Match.Symbol, sel.Match.SlotIndices),
			Timestamp: at,
		})
	}
	return events
}

// Restart deals a fresh board for a session
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("restart session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.Restart(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get state of session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetSelectionHistory returns paginated selection history
func (s *gameServiceImpl) GetSelectionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history of session %s: %w", sessionID, err)
	}

	history := sess.History
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	selections := []SelectionEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				selections = append(selections, history[i])
			}
		} else {
			selections = append(selections, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Selections:      selections,
		TotalSelections: total,
		Page:            opts.Page,
		PageSize:        opts.Limit,
		TotalPages:      totalPages,
		HasNext:         opts.Page < totalPages,
		HasPrevious:     opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
