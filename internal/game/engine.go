package game

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

// Engine hosts independent game instances. Each game owns its board and
// event bus, so tournament brackets and concurrent matches stay fully
// isolated from each other.
type Engine struct {
	mu     sync.RWMutex
	games  map[string]*Game
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an engine with the given rule constants.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		games:  make(map[string]*Game),
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGame constructs a new game over a fresh default board and bus.
func (e *Engine) CreateGame() *Game {
	e.mu.Lock()
	defer e.mu.Unlock()

	bus := rules.NewEventBus()
	g := NewGame(e.cfg, DefaultBoard(), bus, e.logger)
	e.games[g.ID()] = g

	e.logger.Info("game created", zap.String("game_id", g.ID()))
	return g
}

// GetGame retrieves a hosted game by id.
func (e *Engine) GetGame(gameID string) (*Game, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.games[gameID]
	return g, ok
}

// RemoveGame drops a game from the host.
func (e *Engine) RemoveGame(gameID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.games, gameID)
	e.logger.Info("game removed", zap.String("game_id", gameID))
}

// ActiveGameCount returns the number of games still in progress.
func (e *Engine) ActiveGameCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, g := range e.games {
		if g.Status() != rules.StatusFinished {
			count++
		}
	}
	return count
}

// RestoreGame rebuilds a hosted game from a persisted snapshot.
func (e *Engine) RestoreGame(snap Snapshot) (*Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.games[snap.GameID]; exists {
		return nil, fmt.Errorf("game %s already hosted", snap.GameID)
	}
	bus := rules.NewEventBus()
	g := NewGame(e.cfg, DefaultBoard(), bus, e.logger)
	if err := g.LoadState(snap); err != nil {
		return nil, err
	}
	e.games[g.ID()] = g
	e.logger.Info("game restored", zap.String("game_id", g.ID()))
	return g, nil
}
