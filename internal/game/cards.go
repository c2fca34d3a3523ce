package game

import "github.com/magnategame/magnate-server/internal/game/rules"

// Card is one entry of a draw deck. Change credits or debits the drawer;
// Move repositions them relative to their current cell. A card move does
// not re-resolve the destination cell.
type Card struct {
	Name   string
	Change int
	Move   int
}

var chanceDeck = []Card{
	{Name: "Bank error in your favor", Change: 75},
	{Name: "Property assessment", Change: -60},
	{Name: "Won a writing prize", Change: 40},
	{Name: "Doctor's bill", Change: -50},
	{Name: "Take a stroll", Move: 3},
	{Name: "Missed a ferry", Move: -2},
}

var microEventDeck = []Card{
	{Name: "Pop-up market windfall", Change: 30},
	{Name: "Street musicians tip jar", Change: -15},
	{Name: "Found a lost wallet", Change: 20},
	{Name: "Parking ticket", Change: -25},
}

var contractDeck = []Card{
	{Name: "Consulting contract", Change: 100},
	{Name: "Contract penalty clause", Change: -80},
	{Name: "Retainer renewal", Change: 50},
}

// drawCard resolves a random card from the deck for the player. Debits
// may drive the balance negative and route to bankruptcy with the bank
// as creditor. Caller holds g.mu.
func (g *Game) drawCard(player *Player, deck []Card) {
	if len(deck) == 0 {
		return
	}
	card := deck[g.rng.Intn(len(deck))]
	g.emit(rules.CardDrawn{PlayerID: player.ID, Card: card.Name, Change: card.Change})

	switch {
	case card.Change > 0:
		player.AddMoney(card.Change, "card: "+card.Name)
	case card.Change < 0:
		player.forceDebit(-card.Change, "card: "+card.Name)
		g.checkDebt(player, "", -card.Change)
	}
	if card.Move != 0 {
		player.Move(card.Move)
	}
}
