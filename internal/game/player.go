package game

import (
	"github.com/magnategame/magnate-server/internal/game/rules"
)

// PlayerStats is the cumulative statistics record for one participant.
type PlayerStats struct {
	TurnsPlayed      int `json:"turns_played"`
	PropertiesBought int `json:"properties_bought"`
	RentPaid         int `json:"rent_paid"`
	RentCollected    int `json:"rent_collected"`
	MoneyEarned      int `json:"money_earned"`
	MoneySpent       int `json:"money_spent"`
	TimesJailed      int `json:"times_jailed"`
	AuctionsWon      int `json:"auctions_won"`
	TradesCompleted  int `json:"trades_completed"`
}

// Player owns a participant's money, position, property list and jail
// status. Money moves only through AddMoney/RemoveMoney, which raise
// MoneyChanged on success. Events go through the emit sink supplied by
// the owning Game, so they flush after the game's critical section in
// causal order. Player state is serialized by the owning Game; it
// carries no lock of its own.
type Player struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Token      string      `json:"token"`
	Money      int         `json:"money"`
	Position   int         `json:"position"`
	Properties []int       `json:"properties"`
	InJail     bool        `json:"in_jail"`
	JailTurns  int         `json:"jail_turns"`
	Bankrupt   bool        `json:"bankrupt"`
	Stats      PlayerStats `json:"stats"`

	emit      func(rules.Event)
	boardSize int
	salary    int
}

// NewPlayer creates a participant bound to a game's event sink.
func NewPlayer(id, name, token string, money, boardSize, salary int, emit func(rules.Event)) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		Token:      token,
		Money:      money,
		Properties: make([]int, 0, 8),
		emit:       emit,
		boardSize:  boardSize,
		salary:     salary,
	}
}

// AddMoney credits the player and publishes MoneyChanged. Zero amounts
// are no-ops; negative amounts delegate to RemoveMoney.
func (p *Player) AddMoney(amount int, reason string) {
	if amount == 0 {
		return
	}
	if amount < 0 {
		p.RemoveMoney(-amount, reason)
		return
	}
	p.Money += amount
	p.Stats.MoneyEarned += amount
	p.emit(rules.MoneyChanged{
		PlayerID: p.ID,
		Amount:   p.Money,
		Change:   amount,
		Reason:   reason,
	})
}

// RemoveMoney debits the player, returning false without mutating state
// when funds are insufficient. Non-positive amounts are no-ops.
func (p *Player) RemoveMoney(amount int, reason string) bool {
	if amount <= 0 {
		return false
	}
	if p.Money < amount {
		return false
	}
	p.Money -= amount
	p.Stats.MoneySpent += amount
	p.emit(rules.MoneyChanged{
		PlayerID: p.ID,
		Amount:   p.Money,
		Change:   -amount,
		Reason:   reason,
	})
	return true
}

// forceDebit charges the player even into negative balance. Used for
// rent and tax where bankruptcy resolution handles the shortfall.
func (p *Player) forceDebit(amount int, reason string) {
	if amount <= 0 {
		return
	}
	p.Money -= amount
	p.Stats.MoneySpent += amount
	p.emit(rules.MoneyChanged{
		PlayerID: p.ID,
		Amount:   p.Money,
		Change:   -amount,
		Reason:   reason,
	})
}

// HasMoney reports whether the player can cover amount in cash.
func (p *Player) HasMoney(amount int) bool {
	return p.Money >= amount
}

// CanPayRent reports whether cash plus the half-sale value of unmortgaged
// holdings covers the amount.
func (p *Player) CanPayRent(amount int, board *Board) bool {
	total := p.Money
	for _, pos := range p.Properties {
		cell, ok := board.GetCell(pos)
		if !ok || cell.Mortgaged {
			continue
		}
		total += cell.Price / 2
		total += cell.Improvements * cell.ImprovementCost / 2
		if cell.Residence {
			total += cell.ResidenceCost / 2
		}
	}
	return total >= amount
}

// CheckBankruptcy reports whether the player is out of options: balance
// negative and liquidation cannot restore it.
func (p *Player) CheckBankruptcy(board *Board) bool {
	if p.Bankrupt {
		return true
	}
	if p.Money >= 0 {
		return false
	}
	return !p.CanPayRent(0, board)
}

// DeclareBankruptcy clears money and properties and sets the terminal
// flag. The property side of the transfer is handled by the caller.
func (p *Player) DeclareBankruptcy() {
	p.Money = 0
	p.Properties = p.Properties[:0]
	p.Bankrupt = true
	p.InJail = false
	p.JailTurns = 0
}

// Move advances the player by steps, wrapping around the board. Passing
// start pays the salary. Returns the origin, destination and whether the
// move wrapped.
func (p *Player) Move(steps int) (from, to int, passedStart bool) {
	from = p.Position
	to = (p.Position + steps) % p.boardSize
	if to < 0 {
		to += p.boardSize
	}
	p.Position = to
	passedStart = to < from
	p.emit(rules.PlayerMoved{PlayerID: p.ID, From: from, To: to, PassedStart: passedStart})
	if passedStart {
		p.AddMoney(p.salary, "salary")
	}
	return from, to, passedStart
}

// MoveTo places the player on pos directly. A destination that
// numerically precedes the origin counts as passing start and pays the
// salary, unless collectSalary is false (jail transfers).
func (p *Player) MoveTo(pos int, collectSalary bool) {
	from := p.Position
	p.Position = pos
	passedStart := collectSalary && pos < from
	p.emit(rules.PlayerMoved{PlayerID: p.ID, From: from, To: pos, PassedStart: passedStart})
	if passedStart {
		p.AddMoney(p.salary, "salary")
	}
}

// AddProperty records a position in the back-reference list.
func (p *Player) AddProperty(pos int) {
	for _, existing := range p.Properties {
		if existing == pos {
			return
		}
	}
	p.Properties = append(p.Properties, pos)
}

// RemoveProperty drops a position from the back-reference list.
func (p *Player) RemoveProperty(pos int) {
	for i, existing := range p.Properties {
		if existing == pos {
			p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
			return
		}
	}
}

// SendToJail moves the player to the jail cell without salary.
func (p *Player) SendToJail(jailPos int, reason string) {
	p.MoveTo(jailPos, false)
	p.InJail = true
	p.JailTurns = 0
	p.Stats.TimesJailed++
	p.emit(rules.PlayerJailed{PlayerID: p.ID, Reason: reason})
}

// ReleaseFromJail clears the jail flag.
func (p *Player) ReleaseFromJail(reason string) {
	if !p.InJail {
		return
	}
	p.InJail = false
	p.JailTurns = 0
	p.emit(rules.PlayerReleased{PlayerID: p.ID, Reason: reason})
}
