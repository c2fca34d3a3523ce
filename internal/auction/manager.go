package auction

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

// FundsChecker reports a player's available cash. Implemented by the
// game so the auction never mutates money itself.
type FundsChecker interface {
	PlayerMoney(playerID string) (int, bool)
}

// Config carries the auction timing constants.
type Config struct {
	Duration  int // countdown seconds for a fresh auction
	Extension int // countdown reset after an accepted bid

	// TickInterval drives the background countdown. Zero disables the
	// ticker; tests then call Tick directly.
	TickInterval time.Duration
}

// DefaultConfig returns the standard auction timing.
func DefaultConfig() Config {
	return Config{Duration: 30, Extension: 10, TickInterval: time.Second}
}

// Auction is the state of one timed bidding protocol. Bids are
// monotonically increasing; the highest bid never decreases.
type Auction struct {
	Position     int
	Participants []string
	HighBid      int
	HighBidder   string
	Remaining    int // seconds
}

// Manager runs at most one auction at a time. The single active-auction
// slot is the mutual-exclusion mechanism: a second start while one is
// active is a no-op.
type Manager struct {
	mu     sync.Mutex
	logger *zap.Logger
	bus    *rules.EventBus
	funds  FundsChecker
	cfg    Config

	active *Auction
	stop   chan struct{}
}

// NewManager creates an auction manager wired to the game's bus. It
// reacts to purchase declines and force-closes on game end.
func NewManager(bus *rules.EventBus, funds FundsChecker, cfg Config, logger *zap.Logger) *Manager {
	m := &Manager{
		logger: logger,
		bus:    bus,
		funds:  funds,
		cfg:    cfg,
	}
	rules.On(bus, func(evt rules.AuctionRequested) {
		m.StartAuction(evt.Position, evt.Participants)
	})
	rules.On(bus, func(rules.GameEnded) {
		m.ForceClose()
	})
	return m
}

// Active returns a copy of the running auction, or nil.
func (m *Manager) Active() *Auction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	cp := *m.active
	cp.Participants = append([]string(nil), m.active.Participants...)
	return &cp
}

// StartAuction opens a timed auction over a cell. A start while another
// auction is active is a no-op, as is a start with no participants.
func (m *Manager) StartAuction(position int, participants []string) {
	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		m.logger.Warn("auction already active, ignoring start",
			zap.Int("position", position),
		)
		return
	}
	if len(participants) == 0 {
		m.mu.Unlock()
		return
	}

	m.active = &Auction{
		Position:     position,
		Participants: append([]string(nil), participants...),
		Remaining:    m.cfg.Duration,
	}
	if m.cfg.TickInterval > 0 {
		m.stop = make(chan struct{})
		go m.runTicker(m.stop)
	}
	evt := rules.AuctionStarted{
		Position:     position,
		Participants: append([]string(nil), participants...),
		Duration:     m.cfg.Duration,
	}
	m.mu.Unlock()

	m.logger.Info("auction started",
		zap.Int("position", position),
		zap.Int("participants", len(participants)),
	)
	m.bus.Publish(evt)
}

func (m *Manager) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// MakeBid places a bid. Rejections are events, not errors: the bidder
// must still be a participant, afford the amount, and exceed the
// current high bid. An accepted bid resets the countdown to the
// extension window to prevent last-second sniping.
func (m *Manager) MakeBid(playerID string, amount int) bool {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return false
	}
	if !contains(m.active.Participants, playerID) {
		m.mu.Unlock()
		m.bus.Publish(rules.AuctionError{PlayerID: playerID, Reason: "not a participant"})
		return false
	}
	if amount <= m.active.HighBid {
		m.mu.Unlock()
		m.bus.Publish(rules.AuctionError{PlayerID: playerID, Reason: "bid does not exceed current bid"})
		return false
	}
	m.mu.Unlock()

	// Funds check happens outside the auction lock: the game owns its
	// own lock and the auction never holds both at once.
	money, ok := m.funds.PlayerMoney(playerID)

	m.mu.Lock()
	if m.active == nil || !contains(m.active.Participants, playerID) {
		m.mu.Unlock()
		return false
	}
	if !ok || money < amount {
		m.mu.Unlock()
		m.bus.Publish(rules.AuctionError{PlayerID: playerID, Reason: "insufficient funds"})
		return false
	}
	if amount <= m.active.HighBid {
		m.mu.Unlock()
		m.bus.Publish(rules.AuctionError{PlayerID: playerID, Reason: "bid does not exceed current bid"})
		return false
	}
	m.active.HighBid = amount
	m.active.HighBidder = playerID
	m.active.Remaining = m.cfg.Extension
	evt := rules.AuctionBidPlaced{PlayerID: playerID, Amount: amount, Remaining: m.active.Remaining}
	m.mu.Unlock()

	m.bus.Publish(evt)
	return true
}

// Pass removes a bidder from the auction. When one or zero participants
// remain the auction ends immediately.
func (m *Manager) Pass(playerID string) {
	m.mu.Lock()
	if m.active == nil || !contains(m.active.Participants, playerID) {
		m.mu.Unlock()
		return
	}
	remaining := make([]string, 0, len(m.active.Participants)-1)
	for _, id := range m.active.Participants {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	m.active.Participants = remaining
	passed := rules.AuctionPlayerPassed{PlayerID: playerID}

	var ended *rules.AuctionEnded
	if len(remaining) <= 1 {
		ended = m.endLocked()
	}
	m.mu.Unlock()

	m.bus.Publish(passed)
	if ended != nil {
		m.bus.Publish(*ended)
	}
}

// Tick decrements the countdown by one second and force-ends the
// auction at zero. The ticker goroutine calls it once per interval;
// tests call it directly.
func (m *Manager) Tick() {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return
	}
	m.active.Remaining--
	update := rules.AuctionTimeUpdate{Remaining: m.active.Remaining}

	var ended *rules.AuctionEnded
	if m.active.Remaining <= 0 {
		ended = m.endLocked()
	}
	m.mu.Unlock()

	m.bus.Publish(update)
	if ended != nil {
		m.bus.Publish(*ended)
	}
}

// endLocked closes the auction and clears the slot. Caller holds m.mu
// and publishes the returned event after unlocking.
func (m *Manager) endLocked() *rules.AuctionEnded {
	auction := m.active
	m.active = nil
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}

	m.logger.Info("auction ended",
		zap.Int("position", auction.Position),
		zap.String("winner", auction.HighBidder),
		zap.Int("price", auction.HighBid),
	)
	return &rules.AuctionEnded{
		WinnerID: auction.HighBidder,
		Position: auction.Position,
		Price:    auction.HighBid,
	}
}

// ForceClose abandons any open auction without a winner. Used when the
// game ends mid-auction; no settlement happens.
func (m *Manager) ForceClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return
	}
	m.logger.Info("auction force-closed", zap.Int("position", m.active.Position))
	m.active = nil
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
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
