package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Notifier receives state pushed by an engine outside of a request, such as
// the board after a delayed clear.
type Notifier interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
}

// Option customizes a Manager
type Option func(*Manager)

// WithNotifier sets the receiver of asynchronous state changes
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithEngineOptions passes extra options to every engine the manager creates
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// Manager handles game session lifecycle
type Manager struct {
	sessions   map[string]*service.Session
	notifier   Notifier
	engineOpts []engine.Option
	mu         sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNotifier replaces the receiver of asynchronous state changes
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

func (m *Manager) currentNotifier() Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifier
}

// Create creates a new session with the given ID and configuration
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	}
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/ ") {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	opts := append([]engine.Option{}, m.engineOpts...)
	opts = append(opts, engine.WithStateListener(func(state *engine.GameState) {
		if n := m.currentNotifier(); n != nil {
			n.BroadcastToSession(id, state)
		}
	}))

	eng, err := engine.NewEngine(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:        id,
		Engine:    eng,
		Config:    config,
		CreatedAt: now,
	}
	session.SetLastAccessed(now)

	m.sessions[strings.ToLower(id)] = session
	log.Debug().Str("session", id).Str("config", config.Name).Msg("session created")

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, exists := m.sessions[strings.ToLower(id)]; exists {
		return session, nil
	}
	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session and stops its pending clear
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if exists {
		delete(m.sessions, lowerID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	session.Engine.Close()
	log.Debug().Str("session", session.ID).Msg("session deleted")
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Touch()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var expired []*service.Session
	for id, session := range m.sessions {
		if session.LastAccessed().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Engine.Close()
	}
	if len(expired) > 0 {
		log.Info().Int("removed", len(expired)).Dur("max_age", maxAge).Msg("expired sessions cleaned up")
	}

	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	for {
		// 2 random bytes make 4 hex characters
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)

		m.mu.RLock()
		taken := m.sessionExists(id)
		m.mu.RUnlock()
		if !taken {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive). Callers hold mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
