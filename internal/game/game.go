package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game/rules"
)

// Config carries the tunable rule constants for one game.
type Config struct {
	StartMoney   int
	Salary       int
	JailFine     int
	MaxJailTurns int

	// DiceRoller is injectable for deterministic tests; nil selects a
	// seeded pseudo-random roller.
	DiceRoller func() (int, int)
}

// DefaultConfig returns the standard rule constants.
func DefaultConfig() Config {
	return Config{
		StartMoney:   1500,
		Salary:       200,
		JailFine:     50,
		MaxJailTurns: 3,
	}
}

// PlayerInfo is the external player data a game is started from.
type PlayerInfo struct {
	ID    string
	Name  string
	Token string
}

// pendingPurchase tracks an outstanding buy/decline decision.
type pendingPurchase struct {
	playerID string
	position int
	price    int
}

// Game is the turn orchestrator. It owns the player list and turn
// pointer and is the only component allowed to advance the turn pointer.
// Sub-protocols (auction, trade, alliances, calendar) coordinate with it
// purely through the event bus.
//
// All mutation runs under g.mu. Events raised by the game itself are
// queued during the critical section and published after the lock is
// released, so a listener may safely call back into the game.
type Game struct {
	mu sync.Mutex

	id      string
	logger  *zap.Logger
	bus     *rules.EventBus
	board   *Board
	cfg     Config
	rng     *rand.Rand
	rollDie func() (int, int)

	players    []*Player
	current    int
	turnNumber int
	status     rules.GameStatus
	phase      rules.TurnPhase

	doublesCount int
	pending      *pendingPurchase
	startTime    time.Time
	ended        bool

	queued []rules.Event
}

// NewGame constructs a game over an injected board and bus. Nothing is
// global: two games never share state.
func NewGame(cfg Config, board *Board, bus *rules.EventBus, logger *zap.Logger) *Game {
	g := &Game{
		id:     uuid.New().String(),
		logger: logger,
		bus:    bus,
		board:  board,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		status: rules.StatusWaiting,
		phase:  rules.PhaseIdle,
	}
	if cfg.DiceRoller != nil {
		g.rollDie = cfg.DiceRoller
	} else {
		g.rollDie = func() (int, int) {
			return g.rng.Intn(6) + 1, g.rng.Intn(6) + 1
		}
	}

	rules.On(bus, func(evt rules.AuctionEnded) { g.settleAuction(evt) })
	rules.On(bus, func(evt rules.TradeCompleted) { g.settleTrade(evt) })
	return g
}

// ID returns the game id.
func (g *Game) ID() string { return g.id }

// Bus returns the game's event bus for collaborators and observers.
func (g *Game) Bus() *rules.EventBus { return g.bus }

// Board returns the game's board.
func (g *Game) Board() *Board { return g.board }

// emit queues an event for publication after the critical section.
func (g *Game) emit(evt rules.Event) {
	g.queued = append(g.queued, evt)
}

// flush publishes queued events outside the lock. Every public entry
// point defers it immediately after Lock.
func (g *Game) flush() {
	events := g.queued
	g.queued = nil
	g.mu.Unlock()
	for _, evt := range events {
		g.bus.Publish(evt)
	}
}

// Start moves the game from waiting to playing. An empty or too-small
// player list rejects the start; this is the only fatal configuration
// error.
func (g *Game) Start(infos []PlayerInfo) error {
	g.mu.Lock()
	defer g.flush()

	if g.status != rules.StatusWaiting {
		return fmt.Errorf("game already started")
	}
	if len(infos) < 2 {
		return fmt.Errorf("need at least 2 players, got %d", len(infos))
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		id := info.ID
		if id == "" {
			id = uuid.New().String()
		}
		player := NewPlayer(id, info.Name, info.Token, g.cfg.StartMoney, g.board.Size(), g.cfg.Salary, g.emit)
		g.players = append(g.players, player)
		ids = append(ids, id)
	}

	g.status = rules.StatusPlaying
	g.phase = rules.PhaseIdle
	g.current = 0
	g.turnNumber = 1
	g.startTime = time.Now()

	g.logger.Info("game started",
		zap.String("game_id", g.id),
		zap.Int("players", len(g.players)),
	)
	g.emit(rules.GameStarted{GameID: g.id, Players: ids})
	return nil
}

// CurrentPlayerID returns the id of the player whose turn it is.
func (g *Game) CurrentPlayerID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.players) == 0 {
		return ""
	}
	return g.players[g.current].ID
}

// Status returns the game lifecycle status.
func (g *Game) Status() rules.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Phase returns the current turn micro-cycle phase.
func (g *Game) Phase() rules.TurnPhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// TurnNumber returns the current turn counter.
func (g *Game) TurnNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turnNumber
}

// PlayerMoney reports a player's cash. Implements the funds check used
// by the auction subsystem.
func (g *Game) PlayerMoney(playerID string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	player := g.findPlayer(playerID)
	if player == nil {
		return 0, false
	}
	return player.Money, true
}

func (g *Game) findPlayer(id string) *Player {
	for _, player := range g.players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// RollDice rolls for the current player and resolves the landed cell.
// Doubles grant an extra roll; a third consecutive doubles sends the
// player to jail and force-ends the turn.
func (g *Game) RollDice() (int, int, error) {
	g.mu.Lock()
	defer g.flush()

	if g.status != rules.StatusPlaying {
		return 0, 0, fmt.Errorf("game is not in progress")
	}
	if !g.phase.CanRoll() {
		return 0, 0, fmt.Errorf("cannot roll during %s", g.phase)
	}

	player := g.players[g.current]
	die1, die2 := g.rollDie()
	doubles := die1 == die2
	g.emit(rules.DiceRolled{PlayerID: player.ID, Die1: die1, Die2: die2, Doubles: doubles})

	if player.InJail {
		g.resolveJailRoll(player, die1, die2, doubles)
		return die1, die2, nil
	}

	if doubles {
		g.doublesCount++
		if g.doublesCount >= 3 {
			g.sendToJail(player, "three consecutive doubles")
			g.phase = rules.PhaseTurnEnded
			return die1, die2, nil
		}
	} else {
		g.doublesCount = 0
	}

	g.phase = rules.PhaseMoved
	player.Move(die1 + die2)
	g.resolveCell(player, doubles)
	return die1, die2, nil
}

func (g *Game) resolveJailRoll(player *Player, die1, die2 int, doubles bool) {
	if doubles {
		player.ReleaseFromJail("rolled doubles")
		g.phase = rules.PhaseMoved
		player.Move(die1 + die2)
		// An escape roll never grants an extra roll.
		g.resolveCell(player, false)
		return
	}
	player.JailTurns++
	if player.JailTurns >= g.cfg.MaxJailTurns {
		player.forceDebit(g.cfg.JailFine, "jail fine")
		player.ReleaseFromJail("served full term")
		g.checkDebt(player, "", g.cfg.JailFine)
	}
	g.phase = rules.PhaseTurnEnded
}

// PayJailFine lets the current player buy their way out before rolling.
func (g *Game) PayJailFine(playerID string) error {
	g.mu.Lock()
	defer g.flush()

	if g.status != rules.StatusPlaying {
		return fmt.Errorf("game is not in progress")
	}
	player := g.players[g.current]
	if player.ID != playerID {
		return fmt.Errorf("not %s's turn", playerID)
	}
	if !player.InJail {
		return fmt.Errorf("player is not in jail")
	}
	if !player.RemoveMoney(g.cfg.JailFine, "jail fine") {
		return fmt.Errorf("insufficient funds for jail fine")
	}
	player.ReleaseFromJail("paid fine")
	return nil
}

func (g *Game) sendToJail(player *Player, reason string) {
	jailPos := g.jailPosition()
	player.SendToJail(jailPos, reason)
	g.doublesCount = 0
}

func (g *Game) jailPosition() int {
	for pos := 0; pos < g.board.Size(); pos++ {
		if cell, ok := g.board.GetCell(pos); ok && cell.Type == CellJail {
			return pos
		}
	}
	return 0
}

// resolveCell runs the landed-cell rules for the current player.
// extraRoll reports whether the player keeps the turn after resolution.
func (g *Game) resolveCell(player *Player, extraRoll bool) {
	g.phase = rules.PhaseResolvingCell
	cell, ok := g.board.GetCell(player.Position)
	if !ok {
		g.finishResolution(extraRoll)
		return
	}

	switch cell.Type {
	case CellProperty, CellTransport, CellUtility:
		g.resolveOwnable(player, cell, extraRoll)
		return
	case CellTax:
		g.chargeBank(player, cell.TaxAmount, "tax")
	case CellTrial:
		g.chargeBank(player, cell.TaxAmount, "court fine")
	case CellGoToJail:
		g.sendToJail(player, "landed on go-to-jail")
		g.phase = rules.PhaseTurnEnded
		return
	case CellChance:
		g.drawCard(player, chanceDeck)
	case CellMicroEvent:
		g.drawCard(player, microEventDeck)
	case CellContract:
		g.drawCard(player, contractDeck)
	}

	g.finishResolution(extraRoll)
}

func (g *Game) resolveOwnable(player *Player, cell Cell, extraRoll bool) {
	switch {
	case cell.OwnerID == "":
		if player.HasMoney(cell.Price) {
			g.pending = &pendingPurchase{playerID: player.ID, position: cell.Position, price: cell.Price}
			g.phase = rules.PhaseAwaitingPurchase
			g.emit(rules.ShowPurchaseDialog{PlayerID: player.ID, Position: cell.Position, Price: cell.Price})
			return
		}
		g.emit(rules.AuctionRequested{Position: cell.Position, Participants: g.activePlayerIDs()})
	case cell.OwnerID != player.ID:
		g.chargeRent(player, cell)
	}
	g.finishResolution(extraRoll)
}

func (g *Game) finishResolution(extraRoll bool) {
	if g.status != rules.StatusPlaying {
		return
	}
	if extraRoll {
		g.phase = rules.PhaseIdle
		return
	}
	g.phase = rules.PhaseTurnEnded
}

func (g *Game) activePlayerIDs() []string {
	ids := make([]string, 0, len(g.players))
	for _, player := range g.players {
		if !player.Bankrupt {
			ids = append(ids, player.ID)
		}
	}
	return ids
}

// chargeRent settles rent between the lander and the owner. A shortfall
// drives the payer's balance negative and routes to bankruptcy handling.
func (g *Game) chargeRent(payer *Player, cell Cell) {
	owner := g.findPlayer(cell.OwnerID)
	if owner == nil || owner.Bankrupt {
		return
	}
	rent := g.board.CalculateRent(cell.Position, owner.ID)
	if rent <= 0 {
		return
	}

	payer.forceDebit(rent, "rent")
	payer.Stats.RentPaid += rent
	g.emit(rules.RentPaid{PayerID: payer.ID, OwnerID: owner.ID, Position: cell.Position, Amount: rent})

	if payer.Money >= 0 {
		owner.AddMoney(rent, "rent")
		owner.Stats.RentCollected += rent
		return
	}
	// Recovered cash is what the payer actually had before the charge.
	recovered := payer.Money + rent
	if recovered > 0 {
		owner.AddMoney(recovered, "rent")
		owner.Stats.RentCollected += recovered
	}
	g.handleBankruptcy(payer, owner.ID, rent)
}

// chargeBank charges the player a bank debt (tax, fine). The bank is not
// a player: on bankruptcy the assets escheat to the bank.
func (g *Game) chargeBank(player *Player, amount int, reason string) {
	if amount <= 0 {
		return
	}
	player.forceDebit(amount, reason)
	g.checkDebt(player, "", amount)
}

func (g *Game) checkDebt(player *Player, creditorID string, amount int) {
	if player.Money < 0 {
		g.handleBankruptcy(player, creditorID, amount)
	}
}

// BuyProperty accepts a pending purchase offer.
func (g *Game) BuyProperty(playerID string, pos int) error {
	g.mu.Lock()
	defer g.flush()

	if g.pending == nil || g.pending.playerID != playerID || g.pending.position != pos {
		return fmt.Errorf("no pending purchase for player %s at %d", playerID, pos)
	}
	player := g.findPlayer(playerID)
	if player == nil {
		return fmt.Errorf("unknown player %s", playerID)
	}
	if !player.RemoveMoney(g.pending.price, "property purchase") {
		return fmt.Errorf("insufficient funds")
	}
	if err := g.board.BuyCell(pos, playerID); err != nil {
		player.AddMoney(g.pending.price, "purchase refund")
		return err
	}
	player.AddProperty(pos)
	player.Stats.PropertiesBought++
	g.emit(rules.PropertyPurchased{PlayerID: playerID, Position: pos, Price: g.pending.price})
	g.pending = nil
	g.finishResolution(g.doublesCount > 0)
	return nil
}

// DeclinePurchase declines a pending offer, routing the cell to auction.
func (g *Game) DeclinePurchase(playerID string) error {
	g.mu.Lock()
	defer g.flush()

	if g.pending == nil || g.pending.playerID != playerID {
		return fmt.Errorf("no pending purchase for player %s", playerID)
	}
	pos := g.pending.position
	g.pending = nil
	g.emit(rules.AuctionRequested{Position: pos, Participants: g.activePlayerIDs()})
	g.finishResolution(g.doublesCount > 0)
	return nil
}

// NextPlayer ends the current turn and advances the pointer modulo the
// player count, skipping bankrupt players. A full wrap with no active
// player ends the game.
func (g *Game) NextPlayer() error {
	g.mu.Lock()
	defer g.flush()

	if g.status != rules.StatusPlaying {
		return fmt.Errorf("game is not in progress")
	}
	if g.phase.Blocking() {
		return fmt.Errorf("turn is blocked on %s", g.phase)
	}

	player := g.players[g.current]
	player.Stats.TurnsPlayed++
	g.emit(rules.TurnEnded{GameID: g.id, TurnNumber: g.turnNumber, PlayerID: player.ID})
	g.turnNumber++
	g.doublesCount = 0
	g.pending = nil

	advanced := false
	for i := 1; i <= len(g.players); i++ {
		next := (g.current + i) % len(g.players)
		if !g.players[next].Bankrupt {
			g.current = next
			advanced = true
			break
		}
	}
	if !advanced {
		g.endGame("")
		return nil
	}
	g.phase = rules.PhaseIdle
	g.checkGameEndLocked()
	return nil
}

// HandleBankruptcy resolves a player who cannot cover a debt. With a
// player creditor, all properties and remaining cash transfer to them;
// with none (tax, bank), the assets escheat to the bank and the cells
// become ownerless.
func (g *Game) HandleBankruptcy(debtorID, creditorID string, amount int) error {
	g.mu.Lock()
	defer g.flush()

	debtor := g.findPlayer(debtorID)
	if debtor == nil {
		return fmt.Errorf("unknown player %s", debtorID)
	}
	g.handleBankruptcy(debtor, creditorID, amount)
	return nil
}

func (g *Game) handleBankruptcy(debtor *Player, creditorID string, amount int) {
	if debtor.Bankrupt {
		return
	}
	creditor := g.findPlayer(creditorID)

	positions := append([]int(nil), debtor.Properties...)
	for _, pos := range positions {
		if creditor != nil && !creditor.Bankrupt {
			if err := g.board.TransferProperty(pos, debtor.ID, creditor.ID); err == nil {
				creditor.AddProperty(pos)
			}
		} else {
			g.board.ReleaseProperty(pos)
		}
	}
	if creditor != nil && !creditor.Bankrupt && debtor.Money > 0 {
		creditor.AddMoney(debtor.Money, "bankruptcy settlement")
	}

	debtor.DeclareBankruptcy()
	g.logger.Info("player bankrupt",
		zap.String("game_id", g.id),
		zap.String("player_id", debtor.ID),
		zap.String("creditor_id", creditorID),
		zap.Int("debt", amount),
	)
	g.emit(rules.PlayerBankrupt{PlayerID: debtor.ID, CreditorID: creditorID})
	g.checkGameEndLocked()
}

// checkGameEndLocked finishes the game the instant exactly one
// non-bankrupt player remains. Caller holds g.mu.
func (g *Game) checkGameEndLocked() {
	if g.status != rules.StatusPlaying || g.ended {
		return
	}
	var lastActive *Player
	active := 0
	for _, player := range g.players {
		if !player.Bankrupt {
			active++
			lastActive = player
		}
	}
	if active > 1 {
		return
	}
	winnerID := ""
	if lastActive != nil {
		winnerID = lastActive.ID
	}
	g.endGame(winnerID)
}

func (g *Game) endGame(winnerID string) {
	if g.ended {
		return
	}
	g.ended = true
	g.status = rules.StatusFinished
	g.phase = rules.PhaseTurnEnded

	ids := make([]string, 0, len(g.players))
	for _, player := range g.players {
		ids = append(ids, player.ID)
	}
	duration := time.Since(g.startTime)
	g.logger.Info("game ended",
		zap.String("game_id", g.id),
		zap.String("winner_id", winnerID),
		zap.Duration("duration", duration),
	)
	g.emit(rules.GameEnded{GameID: g.id, WinnerID: winnerID, Players: ids, Duration: duration})
}

// settleAuction performs the asset exchange for a won auction. The
// auction subsystem validated affordability at bid time; funds may have
// moved since, in which case the cell stays with the bank.
func (g *Game) settleAuction(evt rules.AuctionEnded) {
	if evt.WinnerID == "" {
		return
	}
	g.mu.Lock()
	defer g.flush()

	winner := g.findPlayer(evt.WinnerID)
	if winner == nil || winner.Bankrupt {
		return
	}
	if !winner.RemoveMoney(evt.Price, "auction") {
		g.logger.Warn("auction winner cannot pay",
			zap.String("game_id", g.id),
			zap.String("player_id", evt.WinnerID),
			zap.Int("price", evt.Price),
		)
		return
	}
	if err := g.board.BuyCell(evt.Position, winner.ID); err != nil {
		winner.AddMoney(evt.Price, "auction refund")
		return
	}
	winner.AddProperty(evt.Position)
	winner.Stats.PropertiesBought++
	winner.Stats.AuctionsWon++
	g.emit(rules.PropertyPurchased{PlayerID: winner.ID, Position: evt.Position, Price: evt.Price})
}

// settleTrade performs the asset exchange for an accepted offer. The
// trade subsystem stays exchange-mechanism-agnostic; validation happens
// here against the current state, and an invalid exchange is a no-op.
func (g *Game) settleTrade(evt rules.TradeCompleted) {
	g.mu.Lock()
	defer g.flush()

	from := g.findPlayer(evt.FromID)
	to := g.findPlayer(evt.ToID)
	if from == nil || to == nil || from.Bankrupt || to.Bankrupt {
		return
	}
	if from.Money < evt.Offer.Money || to.Money < evt.Request.Money {
		g.logger.Warn("trade exchange aborted: insufficient funds",
			zap.String("game_id", g.id),
			zap.String("offer_id", evt.OfferID),
		)
		return
	}
	for _, pos := range evt.Offer.Positions {
		if cell, ok := g.board.GetCell(pos); !ok || cell.OwnerID != from.ID {
			return
		}
	}
	for _, pos := range evt.Request.Positions {
		if cell, ok := g.board.GetCell(pos); !ok || cell.OwnerID != to.ID {
			return
		}
	}

	if evt.Offer.Money > 0 {
		from.RemoveMoney(evt.Offer.Money, "trade")
		to.AddMoney(evt.Offer.Money, "trade")
	}
	if evt.Request.Money > 0 {
		to.RemoveMoney(evt.Request.Money, "trade")
		from.AddMoney(evt.Request.Money, "trade")
	}
	for _, pos := range evt.Offer.Positions {
		if err := g.board.TransferProperty(pos, from.ID, to.ID); err == nil {
			from.RemoveProperty(pos)
			to.AddProperty(pos)
		}
	}
	for _, pos := range evt.Request.Positions {
		if err := g.board.TransferProperty(pos, to.ID, from.ID); err == nil {
			to.RemoveProperty(pos)
			from.AddProperty(pos)
		}
	}
	from.Stats.TradesCompleted++
	to.Stats.TradesCompleted++
}
