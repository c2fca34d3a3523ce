package calendar

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/economy"
	"github.com/magnategame/magnate-server/internal/game/rules"
)

// ModifierSink receives the rotated modifiers. Implemented by the board.
type ModifierSink interface {
	Weather() economy.Weather
	SetWeather(economy.Weather)
	EconomicEvent() *economy.EconomicEvent
	SetEconomicEvent(*economy.EconomicEvent)
	CulturalEvent() *economy.CulturalEvent
	SetCulturalEvent(*economy.CulturalEvent)
}

// Config carries the scheduler cadences, in turns.
type Config struct {
	WeatherPeriod  int // rotate weather every N turns
	EconomicPeriod int // roll an economic event every M turns while none is active
	CulturalPeriod int // roll a cultural event every K turns while none is active
}

// DefaultConfig returns the standard cadences.
func DefaultConfig() Config {
	return Config{WeatherPeriod: 4, EconomicPeriod: 6, CulturalPeriod: 8}
}

// Manager is the turn-indexed scheduler for weather, economic and
// cultural modifiers. It advances once per turn-ended signal; it owns no
// wall-clock timers.
type Manager struct {
	mu     sync.Mutex
	logger *zap.Logger
	bus    *rules.EventBus
	sink   ModifierSink
	cfg    Config
	rng    *rand.Rand
	turns  int
}

// NewManager creates a calendar wired to the game's bus.
func NewManager(bus *rules.EventBus, sink ModifierSink, cfg Config, logger *zap.Logger) *Manager {
	m := &Manager{
		logger: logger,
		bus:    bus,
		sink:   sink,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	rules.On(bus, func(rules.TurnEnded) {
		m.OnTurnEnded()
	})
	return m
}

// OnTurnEnded advances the scheduler by one turn: active event durations
// decrement and clear at zero, then the cadences roll new entries.
func (m *Manager) OnTurnEnded() {
	m.mu.Lock()
	m.turns++
	turns := m.turns
	events := make([]rules.Event, 0, 3)

	if evt := m.sink.EconomicEvent(); evt != nil {
		evt.Duration--
		if evt.Duration <= 0 {
			m.sink.SetEconomicEvent(nil)
			events = append(events, rules.EconomicEventChanged{Event: nil})
		} else {
			m.sink.SetEconomicEvent(evt)
		}
	}
	if evt := m.sink.CulturalEvent(); evt != nil {
		evt.Duration--
		if evt.Duration <= 0 {
			m.sink.SetCulturalEvent(nil)
			events = append(events, rules.CulturalEventChanged{Event: nil})
		} else {
			m.sink.SetCulturalEvent(evt)
		}
	}

	if m.cfg.WeatherPeriod > 0 && turns%m.cfg.WeatherPeriod == 0 {
		all := economy.AllWeathers()
		weather := all[m.rng.Intn(len(all))]
		m.sink.SetWeather(weather)
		events = append(events, rules.WeatherChanged{Weather: weather})
		m.logger.Info("weather rotated", zap.String("weather", weather.String()))
	}
	if m.cfg.EconomicPeriod > 0 && turns%m.cfg.EconomicPeriod == 0 && m.sink.EconomicEvent() == nil {
		catalog := economy.EconomicCatalog()
		evt := catalog[m.rng.Intn(len(catalog))]
		m.sink.SetEconomicEvent(&evt)
		events = append(events, rules.EconomicEventChanged{Event: &evt})
		m.logger.Info("economic event raised", zap.String("event", evt.Name))
	}
	if m.cfg.CulturalPeriod > 0 && turns%m.cfg.CulturalPeriod == 0 && m.sink.CulturalEvent() == nil {
		catalog := economy.CulturalCatalog()
		evt := catalog[m.rng.Intn(len(catalog))]
		m.sink.SetCulturalEvent(&evt)
		events = append(events, rules.CulturalEventChanged{Event: &evt})
		m.logger.Info("cultural event raised", zap.String("event", evt.Name))
	}
	m.mu.Unlock()

	for _, evt := range events {
		m.bus.Publish(evt)
	}
}

// Turns returns the number of turn-ended signals seen.
func (m *Manager) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns
}
