package calendar

import (
	"math/rand"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/magnategame/magnate-server/internal/game/economy"
	"github.com/magnategame/magnate-server/internal/game/rules"
)

// stubSink holds modifier state in plain fields.
type stubSink struct {
	weather  economy.Weather
	economic *economy.EconomicEvent
	cultural *economy.CulturalEvent
}

func (s *stubSink) Weather() economy.Weather                  { return s.weather }
func (s *stubSink) SetWeather(w economy.Weather)              { s.weather = w }
func (s *stubSink) EconomicEvent() *economy.EconomicEvent     { return copyEco(s.economic) }
func (s *stubSink) SetEconomicEvent(e *economy.EconomicEvent) { s.economic = copyEco(e) }
func (s *stubSink) CulturalEvent() *economy.CulturalEvent     { return copyCul(s.cultural) }
func (s *stubSink) SetCulturalEvent(e *economy.CulturalEvent) { s.cultural = copyCul(e) }

func copyEco(e *economy.EconomicEvent) *economy.EconomicEvent {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

func copyCul(e *economy.CulturalEvent) *economy.CulturalEvent {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *stubSink, *rules.EventBus) {
	t.Helper()
	bus := rules.NewEventBus()
	sink := &stubSink{}
	m := NewManager(bus, sink, cfg, zaptest.NewLogger(t))
	m.rng = rand.New(rand.NewSource(1))
	return m, sink, bus
}

func endTurns(bus *rules.EventBus, n int) {
	for i := 0; i < n; i++ {
		bus.Publish(rules.TurnEnded{GameID: "g1", TurnNumber: i + 1})
	}
}

func TestCalendarWeatherCadence(t *testing.T) {
	m, _, bus := newTestManager(t, Config{WeatherPeriod: 4})

	rotations := 0
	rules.On(bus, func(e rules.WeatherChanged) { rotations++ })

	endTurns(bus, 3)
	if rotations != 0 {
		t.Fatalf("weather rotated early: %d", rotations)
	}
	endTurns(bus, 1)
	if rotations != 1 {
		t.Fatalf("expected rotation at turn 4, got %d", rotations)
	}
	endTurns(bus, 8)
	if rotations != 3 {
		t.Fatalf("expected 3 rotations over 12 turns, got %d", rotations)
	}
	if m.Turns() != 12 {
		t.Fatalf("expected 12 turns seen, got %d", m.Turns())
	}
}

func TestCalendarEconomicEventRaisedOnCadence(t *testing.T) {
	_, sink, bus := newTestManager(t, Config{EconomicPeriod: 2})

	var changes []rules.EconomicEventChanged
	rules.On(bus, func(e rules.EconomicEventChanged) { changes = append(changes, e) })

	endTurns(bus, 1)
	if len(changes) != 0 {
		t.Fatalf("event raised off-cadence: %+v", changes)
	}
	endTurns(bus, 1)
	if len(changes) != 1 || changes[0].Event == nil {
		t.Fatalf("expected event raised at turn 2, got %+v", changes)
	}
	if sink.EconomicEvent() == nil {
		t.Fatal("sink did not receive the event")
	}
}

func TestCalendarEconomicDurationCountdown(t *testing.T) {
	_, sink, bus := newTestManager(t, Config{})
	sink.SetEconomicEvent(&economy.EconomicEvent{
		Name: "BOOM", Kind: economy.ModifierMultiplicative, Value: 1.25, Duration: 3,
	})

	var changes []rules.EconomicEventChanged
	rules.On(bus, func(e rules.EconomicEventChanged) { changes = append(changes, e) })

	endTurns(bus, 2)
	if evt := sink.EconomicEvent(); evt == nil || evt.Duration != 1 {
		t.Fatalf("expected duration 1, got %+v", evt)
	}
	if len(changes) != 0 {
		t.Fatalf("aging must not publish changes: %+v", changes)
	}

	endTurns(bus, 1)
	if evt := sink.EconomicEvent(); evt != nil {
		t.Fatalf("expected event cleared, got %+v", evt)
	}
	if len(changes) != 1 || changes[0].Event != nil {
		t.Fatalf("expected one nil-change on retirement, got %+v", changes)
	}
}

func TestCalendarEconomicNotReplacedWhileActive(t *testing.T) {
	_, sink, bus := newTestManager(t, Config{EconomicPeriod: 1})

	endTurns(bus, 1)
	first := sink.EconomicEvent()
	if first == nil {
		t.Fatal("expected event at turn 1")
	}

	endTurns(bus, 1)
	second := sink.EconomicEvent()
	if second == nil {
		t.Fatal("active event vanished")
	}
	if second.Name != first.Name || second.Duration != first.Duration-1 {
		t.Fatalf("active event replaced instead of aged: %+v vs %+v", first, second)
	}
}

func TestCalendarCulturalEventLifecycle(t *testing.T) {
	_, sink, bus := newTestManager(t, Config{CulturalPeriod: 3})

	var changes []rules.CulturalEventChanged
	rules.On(bus, func(e rules.CulturalEventChanged) { changes = append(changes, e) })

	endTurns(bus, 3)
	if len(changes) != 1 || changes[0].Event == nil {
		t.Fatalf("expected cultural event at turn 3, got %+v", changes)
	}
	raised := sink.CulturalEvent()
	if raised == nil || raised.Bonus <= 0 {
		t.Fatalf("sink did not receive a bonus event: %+v", raised)
	}
}

func TestCalendarCulturalDurationCountdown(t *testing.T) {
	_, sink, bus := newTestManager(t, Config{})
	sink.SetCulturalEvent(&economy.CulturalEvent{Name: "FESTIVAL", Bonus: 30, Duration: 2})

	var changes []rules.CulturalEventChanged
	rules.On(bus, func(e rules.CulturalEventChanged) { changes = append(changes, e) })

	endTurns(bus, 1)
	if evt := sink.CulturalEvent(); evt == nil || evt.Duration != 1 {
		t.Fatalf("expected duration 1, got %+v", evt)
	}
	endTurns(bus, 1)
	if evt := sink.CulturalEvent(); evt != nil {
		t.Fatalf("expected event cleared, got %+v", evt)
	}
	if len(changes) != 1 || changes[0].Event != nil {
		t.Fatalf("expected one nil-change on retirement, got %+v", changes)
	}
}

func TestCalendarDisabledCadences(t *testing.T) {
	m, sink, bus := newTestManager(t, Config{})

	endTurns(bus, 10)
	if sink.weather != economy.WeatherClear {
		t.Fatalf("weather changed with zero cadence: %s", sink.weather)
	}
	if sink.EconomicEvent() != nil || sink.CulturalEvent() != nil {
		t.Fatal("events raised with zero cadences")
	}
	if m.Turns() != 10 {
		t.Fatalf("expected turn counting regardless, got %d", m.Turns())
	}
}
