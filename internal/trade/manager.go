package trade

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

// Status is the write-once terminal lifecycle of an offer.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

// Offer is a proposed bilateral exchange with an absolute expiry.
type Offer struct {
	ID        string
	FromID    string
	ToID      string
	Offer     rules.TradeBundle
	Request   rules.TradeBundle
	CreatedAt time.Time
	ExpiresAt time.Time
	Status    Status
}

// Config carries the trade timing constants.
type Config struct {
	Window time.Duration // offer validity window

	// SweepInterval drives the background expiry sweep. Zero disables
	// it; tests then call Sweep directly.
	SweepInterval time.Duration
}

// DefaultConfig returns the standard trade timing.
func DefaultConfig() Config {
	return Config{Window: 5 * time.Minute, SweepInterval: 10 * time.Second}
}

// Manager tracks pending offers and their history. Membership in the
// pending map is the single source of truth: whichever of accept,
// reject or sweep removes an offer first wins, the others become
// no-ops.
type Manager struct {
	mu      sync.Mutex
	logger  *zap.Logger
	bus     *rules.EventBus
	cfg     Config
	offers  map[string]*Offer
	history []*Offer
	now     func() time.Time
	stop    chan struct{}
	stopped bool
}

// NewManager creates a trade manager wired to the game's bus. Pending
// offers become non-actionable when the game ends.
func NewManager(bus *rules.EventBus, cfg Config, logger *zap.Logger) *Manager {
	m := &Manager{
		logger: logger,
		bus:    bus,
		cfg:    cfg,
		offers: make(map[string]*Offer),
		now:    time.Now,
	}
	if cfg.SweepInterval > 0 {
		m.stop = make(chan struct{})
		go m.runSweeper(m.stop)
	}
	rules.On(bus, func(rules.GameEnded) {
		m.Shutdown()
	})
	return m
}

func (m *Manager) runSweeper(stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// CreateOffer stores a new pending offer and returns its id.
func (m *Manager) CreateOffer(fromID, toID string, offer, request rules.TradeBundle) string {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ""
	}
	now := m.now()
	o := &Offer{
		ID:        uuid.New().String(),
		FromID:    fromID,
		ToID:      toID,
		Offer:     offer,
		Request:   request,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Window),
		Status:    StatusPending,
	}
	m.offers[o.ID] = o
	evt := rules.TradeOfferCreated{OfferID: o.ID, FromID: fromID, ToID: toID, Offer: offer, Request: request}
	m.mu.Unlock()

	m.logger.Info("trade offer created",
		zap.String("offer_id", o.ID),
		zap.String("from", fromID),
		zap.String("to", toID),
	)
	m.bus.Publish(evt)
	return o.ID
}

// AcceptOffer completes a pending offer. The asset exchange itself is
// performed by the TradeCompleted listener. Unknown or non-pending ids
// are no-ops.
func (m *Manager) AcceptOffer(id string) bool {
	m.mu.Lock()
	o, ok := m.offers[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.offers, id)
	o.Status = StatusAccepted
	m.history = append(m.history, o)
	evt := rules.TradeCompleted{OfferID: o.ID, FromID: o.FromID, ToID: o.ToID, Offer: o.Offer, Request: o.Request}
	m.mu.Unlock()

	m.bus.Publish(evt)
	return true
}

// RejectOffer declines a pending offer. Unknown ids are no-ops.
func (m *Manager) RejectOffer(id string) bool {
	m.mu.Lock()
	o, ok := m.offers[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.offers, id)
	o.Status = StatusRejected
	m.history = append(m.history, o)
	evt := rules.TradeRejected{OfferID: o.ID, FromID: o.FromID, ToID: o.ToID}
	m.mu.Unlock()

	m.bus.Publish(evt)
	return true
}

// Sweep expires offers whose window has passed. The sweeper goroutine
// calls it periodically; tests call it directly.
func (m *Manager) Sweep() {
	m.mu.Lock()
	now := m.now()
	expired := make([]*Offer, 0)
	for id, o := range m.offers {
		if now.After(o.ExpiresAt) {
			delete(m.offers, id)
			o.Status = StatusExpired
			m.history = append(m.history, o)
			expired = append(expired, o)
		}
	}
	m.mu.Unlock()

	for _, o := range expired {
		m.logger.Info("trade offer expired", zap.String("offer_id", o.ID))
		m.bus.Publish(rules.TradeExpired{OfferID: o.ID, FromID: o.FromID, ToID: o.ToID})
	}
}

// GetOffer returns a copy of an offer from the pending set or history.
func (m *Manager) GetOffer(id string) (Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.offers[id]; ok {
		return *o, true
	}
	for _, o := range m.history {
		if o.ID == id {
			return *o, true
		}
	}
	return Offer{}, false
}

// PendingOffers returns copies of all pending offers.
func (m *Manager) PendingOffers() []Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	offers := make([]Offer, 0, len(m.offers))
	for _, o := range m.offers {
		offers = append(offers, *o)
	}
	return offers
}

// Shutdown stops the sweeper and moves all pending offers to history as
// expired, without emitting expiry events. They remain queryable but
// non-actionable.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	for id, o := range m.offers {
		delete(m.offers, id)
		o.Status = StatusExpired
		m.history = append(m.history, o)
	}
}
