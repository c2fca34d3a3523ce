package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Session is one authenticated connection lease.
type Session struct {
	Token      string
	PlayerName string
	CreatedAt  time.Time
	LastSeen   time.Time
}

// Manager tracks connection sessions with lease expiry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	lease    time.Duration
	max      int
	logger   *zap.Logger
}

// NewManager creates a session manager with the given lease period.
func NewManager(lease time.Duration, maxSessions int, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		lease:    lease,
		max:      maxSessions,
		logger:   logger,
	}
}

// Create registers a new session and returns it.
func (m *Manager) Create(playerName string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, fmt.Errorf("session limit reached")
	}
	now := time.Now()
	s := &Session{
		Token:      uuid.New().String(),
		PlayerName: playerName,
		CreatedAt:  now,
		LastSeen:   now,
	}
	m.sessions[s.Token] = s
	m.logger.Info("session created", zap.String("player", playerName))
	return s, nil
}

// Validate checks a token, refreshing its lease on success.
func (m *Manager) Validate(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Since(s.LastSeen) > m.lease {
		delete(m.sessions, token)
		return Session{}, false
	}
	s.LastSeen = time.Now()
	return *s, true
}

// Remove drops a session.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupExpiredSessions drops stale sessions periodically until the
// context is cancelled.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.lease / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for token, s := range m.sessions {
		if time.Since(s.LastSeen) > m.lease {
			delete(m.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
}

// HashAccessPassword hashes a gateway access password for storage in
// configuration.
func HashAccessPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyAccessPassword checks a password against the configured hash.
// An empty hash means open access.
func VerifyAccessPassword(hash, password string) error {
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("invalid access password")
	}
	return nil
}
