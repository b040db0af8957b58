package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	SelectTile(ctx context.Context, sessionID string, row, col int) (*SelectResult, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetSelectionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	Config    *engine.GameConfig
	CreatedAt time.Time

	// unix nanoseconds; read paths touch it concurrently
	lastAccessed atomic.Int64

	// History records every selection made in this session, across restarts
	History []SelectionEntry
}

// Touch records an access now and returns the new timestamp
func (s *Session) Touch() time.Time {
	now := time.Now()
	s.lastAccessed.Store(now.UnixNano())
	return now
}

// LastAccessed returns when the session was last used
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// SetLastAccessed overrides the access timestamp
func (s *Session) SetLastAccessed(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}
