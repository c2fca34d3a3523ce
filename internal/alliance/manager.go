package alliance

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

// Benefits is the fixed benefit set of an alliance.
type Benefits struct {
	RentSharePercent     int `json:"rent_share_percent"`
	TradeDiscountPercent int `json:"trade_discount_percent"`
}

// DefaultBenefits returns the standard benefit set.
func DefaultBenefits() Benefits {
	return Benefits{RentSharePercent: 10, TradeDiscountPercent: 5}
}

// Alliance is a declared benefit-sharing agreement between players.
type Alliance struct {
	ID         string    `json:"id"`
	Members    []string  `json:"members"`
	Conditions []string  `json:"conditions"`
	Benefits   Benefits  `json:"benefits"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manager tracks active alliances. An alliance dissolves the instant
// any member goes bankrupt.
type Manager struct {
	mu        sync.Mutex
	logger    *zap.Logger
	bus       *rules.EventBus
	alliances map[string]*Alliance
}

// NewManager creates an alliance manager wired to the game's bus.
func NewManager(bus *rules.EventBus, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:    logger,
		bus:       bus,
		alliances: make(map[string]*Alliance),
	}
	rules.On(bus, func(evt rules.PlayerBankrupt) {
		m.OnPlayerBankrupt(evt.PlayerID)
	})
	return m
}

// CreateAlliance stores a new alliance with the standard benefit set.
func (m *Manager) CreateAlliance(members []string, conditions []string) (*Alliance, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("alliance needs at least 2 members, got %d", len(members))
	}
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if seen[id] {
			return nil, fmt.Errorf("duplicate member %s", id)
		}
		seen[id] = true
	}

	m.mu.Lock()
	a := &Alliance{
		ID:         uuid.New().String(),
		Members:    append([]string(nil), members...),
		Conditions: append([]string(nil), conditions...),
		Benefits:   DefaultBenefits(),
		CreatedAt:  time.Now(),
	}
	m.alliances[a.ID] = a
	evt := rules.AllianceFormed{AllianceID: a.ID, Members: append([]string(nil), members...)}
	m.mu.Unlock()

	m.logger.Info("alliance formed",
		zap.String("alliance_id", a.ID),
		zap.Strings("members", members),
	)
	m.bus.Publish(evt)
	return a, nil
}

// GetAlliance returns a copy of an active alliance.
func (m *Manager) GetAlliance(id string) (Alliance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alliances[id]
	if !ok {
		return Alliance{}, false
	}
	return *a, true
}

// AlliancesOf returns copies of every active alliance containing the
// player.
func (m *Manager) AlliancesOf(playerID string) []Alliance {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Alliance, 0, 2)
	for _, a := range m.alliances {
		if contains(a.Members, playerID) {
			result = append(result, *a)
		}
	}
	return result
}

// Dissolve removes an alliance and announces the break.
func (m *Manager) Dissolve(id, reason string) bool {
	m.mu.Lock()
	a, ok := m.alliances[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.alliances, id)
	evt := rules.AllianceBroken{
		AllianceID: a.ID,
		Members:    append([]string(nil), a.Members...),
		Reason:     reason,
	}
	m.mu.Unlock()

	m.logger.Info("alliance broken",
		zap.String("alliance_id", a.ID),
		zap.String("reason", reason),
	)
	m.bus.Publish(evt)
	return true
}

// OnPlayerBankrupt dissolves every alliance the bankrupt player belongs
// to.
func (m *Manager) OnPlayerBankrupt(playerID string) {
	m.mu.Lock()
	broken := make([]string, 0, 2)
	for id, a := range m.alliances {
		if contains(a.Members, playerID) {
			broken = append(broken, id)
		}
	}
	m.mu.Unlock()

	for _, id := range broken {
		m.Dissolve(id, fmt.Sprintf("member %s went bankrupt", playerID))
	}
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
