package trade

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

func newTestManager(t *testing.T) (*Manager, *rules.EventBus, *time.Time) {
	t.Helper()
	bus := rules.NewEventBus()
	cfg := Config{Window: 5 * time.Minute, SweepInterval: 0}
	m := NewManager(bus, cfg, zaptest.NewLogger(t))

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, bus, &clock
}

func TestTradeOfferLifecycle(t *testing.T) {
	m, bus, _ := newTestManager(t)

	var created []rules.TradeOfferCreated
	rules.On(bus, func(e rules.TradeOfferCreated) { created = append(created, e) })
	var completed []rules.TradeCompleted
	rules.On(bus, func(e rules.TradeCompleted) { completed = append(completed, e) })

	id := m.CreateOffer("p1", "p2",
		rules.TradeBundle{Money: 100, Positions: []int{3}},
		rules.TradeBundle{Positions: []int{6}},
	)
	if id == "" {
		t.Fatal("expected offer id")
	}
	if len(created) != 1 || created[0].OfferID != id {
		t.Fatalf("unexpected creation events: %+v", created)
	}

	offer, ok := m.GetOffer(id)
	if !ok || offer.Status != StatusPending {
		t.Fatalf("expected pending offer, got %+v", offer)
	}
	if len(m.PendingOffers()) != 1 {
		t.Fatal("expected one pending offer")
	}

	if !m.AcceptOffer(id) {
		t.Fatal("accept failed")
	}
	if len(completed) != 1 || completed[0].Offer.Money != 100 {
		t.Fatalf("unexpected completion events: %+v", completed)
	}
	offer, _ = m.GetOffer(id)
	if offer.Status != StatusAccepted {
		t.Fatalf("expected accepted status, got %s", offer.Status)
	}
	if len(m.PendingOffers()) != 0 {
		t.Fatal("accepted offer still pending")
	}

	// Terminal offers are no longer actionable.
	if m.AcceptOffer(id) {
		t.Fatal("second accept must be a no-op")
	}
	if m.RejectOffer(id) {
		t.Fatal("reject after accept must be a no-op")
	}
}

func TestTradeReject(t *testing.T) {
	m, bus, _ := newTestManager(t)

	var rejected []rules.TradeRejected
	rules.On(bus, func(e rules.TradeRejected) { rejected = append(rejected, e) })

	id := m.CreateOffer("p1", "p2", rules.TradeBundle{Money: 50}, rules.TradeBundle{})
	if !m.RejectOffer(id) {
		t.Fatal("reject failed")
	}
	if len(rejected) != 1 || rejected[0].OfferID != id {
		t.Fatalf("unexpected rejection events: %+v", rejected)
	}
	offer, _ := m.GetOffer(id)
	if offer.Status != StatusRejected {
		t.Fatalf("expected rejected status, got %s", offer.Status)
	}
}

func TestTradeExpiryWindow(t *testing.T) {
	m, bus, clock := newTestManager(t)

	var expired []rules.TradeExpired
	rules.On(bus, func(e rules.TradeExpired) { expired = append(expired, e) })

	id := m.CreateOffer("p1", "p2", rules.TradeBundle{Money: 50}, rules.TradeBundle{})

	// One second inside the window the offer is still pending.
	*clock = clock.Add(5*time.Minute - time.Second)
	m.Sweep()
	if len(expired) != 0 {
		t.Fatalf("offer expired early: %+v", expired)
	}
	offer, _ := m.GetOffer(id)
	if offer.Status != StatusPending {
		t.Fatalf("expected pending, got %s", offer.Status)
	}

	// One second past the window the sweep retires it.
	*clock = clock.Add(2 * time.Second)
	m.Sweep()
	if len(expired) != 1 || expired[0].OfferID != id {
		t.Fatalf("expected one expiry event, got %+v", expired)
	}
	offer, _ = m.GetOffer(id)
	if offer.Status != StatusExpired {
		t.Fatalf("expected expired, got %s", offer.Status)
	}

	// An expired offer cannot be accepted.
	if m.AcceptOffer(id) {
		t.Fatal("accept after expiry must be a no-op")
	}
}

func TestTradeAcceptBeatsSweep(t *testing.T) {
	m, bus, clock := newTestManager(t)

	var completed []rules.TradeCompleted
	rules.On(bus, func(e rules.TradeCompleted) { completed = append(completed, e) })
	var expired []rules.TradeExpired
	rules.On(bus, func(e rules.TradeExpired) { expired = append(expired, e) })

	id := m.CreateOffer("p1", "p2", rules.TradeBundle{Money: 50}, rules.TradeBundle{})
	if !m.AcceptOffer(id) {
		t.Fatal("accept failed")
	}

	*clock = clock.Add(10 * time.Minute)
	m.Sweep()
	if len(expired) != 0 {
		t.Fatalf("sweep must not expire an accepted offer: %+v", expired)
	}
	if len(completed) != 1 {
		t.Fatalf("expected one completion, got %d", len(completed))
	}
}

func TestTradeShutdownOnGameEnd(t *testing.T) {
	m, bus, _ := newTestManager(t)

	var expired []rules.TradeExpired
	rules.On(bus, func(e rules.TradeExpired) { expired = append(expired, e) })

	id := m.CreateOffer("p1", "p2", rules.TradeBundle{Money: 50}, rules.TradeBundle{})
	bus.Publish(rules.GameEnded{GameID: "g1"})

	// Shutdown retires pending offers quietly.
	if len(expired) != 0 {
		t.Fatalf("shutdown must not publish expiry events: %+v", expired)
	}
	offer, _ := m.GetOffer(id)
	if offer.Status != StatusExpired {
		t.Fatalf("expected expired after shutdown, got %s", offer.Status)
	}
	if m.CreateOffer("p1", "p2", rules.TradeBundle{}, rules.TradeBundle{}) != "" {
		t.Fatal("offers must be rejected after shutdown")
	}
	if m.AcceptOffer(id) {
		t.Fatal("accept after shutdown must be a no-op")
	}
}
