package rules

import (
	"sync"
	"time"

	"github.com/magnategame/magnate-server/internal/game/economy"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Game/Turn events
	EventGameStarted EventType = "GAME_STARTED"
	EventTurnEnded   EventType = "TURN_ENDED"
	EventDiceRolled  EventType = "DICE_ROLLED"
	EventPlayerMoved EventType = "PLAYER_MOVED"
	EventGameEnded   EventType = "GAME_ENDED"

	// Money/Property events
	EventMoneyChanged      EventType = "MONEY_CHANGED"
	EventPropertyPurchased EventType = "PROPERTY_PURCHASED"
	EventPropertySold      EventType = "PROPERTY_SOLD"
	EventPropertyMortgaged EventType = "PROPERTY_MORTGAGED"
	EventRentPaid          EventType = "RENT_PAID"
	EventPlayerBankrupt    EventType = "PLAYER_BANKRUPT"
	EventPlayerJailed      EventType = "PLAYER_JAILED"
	EventPlayerReleased    EventType = "PLAYER_RELEASED"

	// Purchase dialog events
	EventShowPurchaseDialog EventType = "SHOW_PURCHASE_DIALOG"

	// Auction events
	EventAuctionRequested    EventType = "AUCTION_REQUESTED"
	EventAuctionStarted      EventType = "AUCTION_STARTED"
	EventAuctionBidPlaced    EventType = "AUCTION_BID_PLACED"
	EventAuctionPlayerPassed EventType = "AUCTION_PLAYER_PASSED"
	EventAuctionTimeUpdate   EventType = "AUCTION_TIME_UPDATE"
	EventAuctionEnded        EventType = "AUCTION_ENDED"
	EventAuctionError        EventType = "AUCTION_ERROR"

	// Trade events
	EventTradeOfferCreated EventType = "TRADE_OFFER_CREATED"
	EventTradeCompleted    EventType = "TRADE_COMPLETED"
	EventTradeRejected     EventType = "TRADE_REJECTED"
	EventTradeExpired      EventType = "TRADE_EXPIRED"

	// Alliance events
	EventAllianceFormed EventType = "ALLIANCE_FORMED"
	EventAllianceBroken EventType = "ALLIANCE_BROKEN"

	// Calendar events
	EventWeatherChanged       EventType = "WEATHER_CHANGED"
	EventEconomicEventChanged EventType = "ECONOMIC_EVENT_CHANGED"
	EventCulturalEventChanged EventType = "CULTURAL_EVENT_CHANGED"

	// Card events
	EventCardDrawn EventType = "CARD_DRAWN"
)

// Event is the closed union of messages published on the bus. Each event
// name has exactly one payload struct, so listeners downcast once and get
// compile-checked field access instead of a string-keyed payload bag.
type Event interface {
	Type() EventType
}

// GameStarted is published once when a game transitions to playing.
type GameStarted struct {
	GameID  string
	Players []string
}

func (GameStarted) Type() EventType { return EventGameStarted }

// TurnEnded is published when the turn pointer advances.
type TurnEnded struct {
	GameID     string
	TurnNumber int
	PlayerID   string // the player whose turn just ended
}

func (TurnEnded) Type() EventType { return EventTurnEnded }

// DiceRolled reports the result of a roll before movement resolves.
type DiceRolled struct {
	PlayerID string
	Die1     int
	Die2     int
	Doubles  bool
}

func (DiceRolled) Type() EventType { return EventDiceRolled }

// PlayerMoved reports a position change, including pass-start wraps.
type PlayerMoved struct {
	PlayerID    string
	From        int
	To          int
	PassedStart bool
}

func (PlayerMoved) Type() EventType { return EventPlayerMoved }

// GameEnded is published exactly once per game.
type GameEnded struct {
	GameID   string
	WinnerID string
	Players  []string
	Duration time.Duration
}

func (GameEnded) Type() EventType { return EventGameEnded }

// MoneyChanged is published by every successful money mutation.
// Amount is the resulting balance, Change the signed delta.
type MoneyChanged struct {
	PlayerID string
	Amount   int
	Change   int
	Reason   string
}

func (MoneyChanged) Type() EventType { return EventMoneyChanged }

// PropertyPurchased is published after a direct purchase or auction win settles.
type PropertyPurchased struct {
	PlayerID string
	Position int
	Price    int
}

func (PropertyPurchased) Type() EventType { return EventPropertyPurchased }

// PropertySold is published when a cell is sold back to the bank.
type PropertySold struct {
	PlayerID string
	Position int
	Refund   int
}

func (PropertySold) Type() EventType { return EventPropertySold }

// PropertyMortgaged is published when a cell's mortgage state flips.
type PropertyMortgaged struct {
	PlayerID  string
	Position  int
	Mortgaged bool
}

func (PropertyMortgaged) Type() EventType { return EventPropertyMortgaged }

// RentPaid reports a settled rent charge.
type RentPaid struct {
	PayerID  string
	OwnerID  string
	Position int
	Amount   int
}

func (RentPaid) Type() EventType { return EventRentPaid }

// PlayerBankrupt is published after bankruptcy resolution completes.
type PlayerBankrupt struct {
	PlayerID   string
	CreditorID string // empty when assets escheat to the bank
}

func (PlayerBankrupt) Type() EventType { return EventPlayerBankrupt }

// PlayerJailed is published when a player is sent to jail.
type PlayerJailed struct {
	PlayerID string
	Reason   string
}

func (PlayerJailed) Type() EventType { return EventPlayerJailed }

// PlayerReleased is published when a player leaves jail.
type PlayerReleased struct {
	PlayerID string
	Reason   string
}

func (PlayerReleased) Type() EventType { return EventPlayerReleased }

// ShowPurchaseDialog asks the presentation layer for a buy/decline decision.
type ShowPurchaseDialog struct {
	PlayerID string
	Position int
	Price    int
}

func (ShowPurchaseDialog) Type() EventType { return EventShowPurchaseDialog }

// AuctionRequested routes a declined or unaffordable purchase to the
// auction subsystem without the turn orchestrator depending on it.
type AuctionRequested struct {
	Position     int
	Participants []string
}

func (AuctionRequested) Type() EventType { return EventAuctionRequested }

// AuctionStarted announces a new auction over a cell.
type AuctionStarted struct {
	Position     int
	Participants []string
	Duration     int // seconds
}

func (AuctionStarted) Type() EventType { return EventAuctionStarted }

// AuctionBidPlaced reports an accepted bid.
type AuctionBidPlaced struct {
	PlayerID  string
	Amount    int
	Remaining int // seconds left after the extension reset
}

func (AuctionBidPlaced) Type() EventType { return EventAuctionBidPlaced }

// AuctionPlayerPassed reports a bidder leaving the auction.
type AuctionPlayerPassed struct {
	PlayerID string
}

func (AuctionPlayerPassed) Type() EventType { return EventAuctionPlayerPassed }

// AuctionTimeUpdate is published on every countdown tick.
type AuctionTimeUpdate struct {
	Remaining int // seconds
}

func (AuctionTimeUpdate) Type() EventType { return EventAuctionTimeUpdate }

// AuctionEnded is published exactly once per auction. WinnerID is empty
// when the auction closed with no bids.
type AuctionEnded struct {
	WinnerID string
	Position int
	Price    int
}

func (AuctionEnded) Type() EventType { return EventAuctionEnded }

// AuctionError reports a rejected auction action; rule violations are
// events, not exceptions.
type AuctionError struct {
	PlayerID string
	Reason   string
}

func (AuctionError) Type() EventType { return EventAuctionError }

// TradeBundle is one side of a proposed exchange.
type TradeBundle struct {
	Money     int   `json:"money"`
	Positions []int `json:"positions"`
}

// TradeOfferCreated announces a new pending offer.
type TradeOfferCreated struct {
	OfferID string
	FromID  string
	ToID    string
	Offer   TradeBundle
	Request TradeBundle
}

func (TradeOfferCreated) Type() EventType { return EventTradeOfferCreated }

// TradeCompleted is published when an offer is accepted. The asset
// exchange itself is performed by the listener.
type TradeCompleted struct {
	OfferID string
	FromID  string
	ToID    string
	Offer   TradeBundle
	Request TradeBundle
}

func (TradeCompleted) Type() EventType { return EventTradeCompleted }

// TradeRejected is published when the recipient declines.
type TradeRejected struct {
	OfferID string
	FromID  string
	ToID    string
}

func (TradeRejected) Type() EventType { return EventTradeRejected }

// TradeExpired is published by the expiry sweep.
type TradeExpired struct {
	OfferID string
	FromID  string
	ToID    string
}

func (TradeExpired) Type() EventType { return EventTradeExpired }

// AllianceFormed announces a new alliance.
type AllianceFormed struct {
	AllianceID string
	Members    []string
}

func (AllianceFormed) Type() EventType { return EventAllianceFormed }

// AllianceBroken is published when an alliance dissolves.
type AllianceBroken struct {
	AllianceID string
	Members    []string
	Reason     string
}

func (AllianceBroken) Type() EventType { return EventAllianceBroken }

// WeatherChanged announces a weather rotation.
type WeatherChanged struct {
	Weather economy.Weather
}

func (WeatherChanged) Type() EventType { return EventWeatherChanged }

// EconomicEventChanged announces a new economic event, or nil when the
// active one retires.
type EconomicEventChanged struct {
	Event *economy.EconomicEvent
}

func (EconomicEventChanged) Type() EventType { return EventEconomicEventChanged }

// CulturalEventChanged announces a new cultural event, or nil on retire.
type CulturalEventChanged struct {
	Event *economy.CulturalEvent
}

func (CulturalEventChanged) Type() EventType { return EventCulturalEventChanged }

// CardDrawn reports a chance or micro-event card resolution.
type CardDrawn struct {
	PlayerID string
	Card     string
	Change   int
}

func (CardDrawn) Type() EventType { return EventCardDrawn }

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// type filtering. Dispatch runs in registration order; one bus instance
// belongs to exactly one game.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	listenerOrder  []int
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	bus.listenerOrder = append(bus.listenerOrder, handle)
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	listener := TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	}
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], listener)
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.listeners[handle]; ok {
		delete(bus.listeners, handle)
		for i, h := range bus.listenerOrder {
			if h == handle {
				bus.listenerOrder = append(bus.listenerOrder[:i], bus.listenerOrder[i+1:]...)
				break
			}
		}
		return
	}
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously,
// in registration order. Listener snapshots are taken under the lock so a
// handler may subscribe or unsubscribe while dispatch is in flight.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	all := make([]Listener, 0, len(bus.listenerOrder))
	for _, handle := range bus.listenerOrder {
		all = append(all, bus.listeners[handle])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type()]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// On registers a compile-time typed listener for a single event struct.
// The payload arrives already downcast, so a listener cannot read fields
// the event does not carry.
func On[T Event](bus *EventBus, callback func(T)) int {
	var zero T
	return bus.SubscribeTyped(zero.Type(), func(event Event) {
		if typed, ok := event.(T); ok {
			callback(typed)
		}
	})
}
