package game

import (
	"fmt"
	"sync"

	"github.com/magnategame/magnate-server/internal/game/economy"
)

// CellType classifies a board cell.
type CellType string

const (
	CellStart      CellType = "START"
	CellProperty   CellType = "PROPERTY"
	CellTransport  CellType = "TRANSPORT"
	CellUtility    CellType = "UTILITY"
	CellTax        CellType = "TAX"
	CellChance     CellType = "CHANCE"
	CellTrial      CellType = "TRIAL"
	CellJail       CellType = "JAIL"
	CellGoToJail   CellType = "GO_TO_JAIL"
	CellMicroEvent CellType = "MICRO_EVENT"
	CellContract   CellType = "CONTRACT"
	CellParking    CellType = "PARKING"
)

// Cell is one board position. Only property, transport and utility cells
// may carry an owner.
type Cell struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Type     CellType `json:"type"`
	Group    string   `json:"group,omitempty"`
	Price    int      `json:"price,omitempty"`

	// Rent configuration: a table indexed by improvement level, or a
	// factor of price, or a flat value. Exactly one applies.
	Rents      []int   `json:"rents,omitempty"`
	RentFactor float64 `json:"rent_factor,omitempty"`
	FlatRent   int     `json:"flat_rent,omitempty"`

	ImprovementCost int `json:"improvement_cost,omitempty"`
	ResidenceCost   int `json:"residence_cost,omitempty"`
	TaxAmount       int `json:"tax_amount,omitempty"`

	OwnerID      string `json:"owner_id,omitempty"`
	Mortgaged    bool   `json:"mortgaged,omitempty"`
	Improvements int    `json:"improvements,omitempty"`
	Residence    bool   `json:"residence,omitempty"`
}

// Ownable reports whether the cell can carry an owner.
func (c *Cell) Ownable() bool {
	switch c.Type {
	case CellProperty, CellTransport, CellUtility:
		return true
	default:
		return false
	}
}

// MaxImprovement returns the highest improvement level the cell supports.
func (c *Cell) MaxImprovement() int {
	if len(c.Rents) == 0 {
		return 0
	}
	return len(c.Rents) - 1
}

// Board owns cell definitions, ownership state and the active rent
// modifiers. All cell mutation goes through Board methods.
type Board struct {
	mu       sync.RWMutex
	cells    []*Cell
	weather  economy.Weather
	economic *economy.EconomicEvent
	cultural *economy.CulturalEvent
}

// NewBoard constructs a board over the given cell definitions.
func NewBoard(cells []*Cell) *Board {
	return &Board{cells: cells}
}

// Size returns the number of cells.
func (b *Board) Size() int {
	return len(b.cells)
}

// GetCell returns a copy of the cell at pos.
func (b *Board) GetCell(pos int) (Cell, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return Cell{}, false
	}
	return *cell, true
}

func (b *Board) cellAt(pos int) *Cell {
	if pos < 0 || pos >= len(b.cells) {
		return nil
	}
	return b.cells[pos]
}

// BuyCell assigns ownership of an unowned ownable cell.
func (b *Board) BuyCell(pos int, playerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return fmt.Errorf("no cell at position %d", pos)
	}
	if !cell.Ownable() {
		return fmt.Errorf("cell %q cannot be owned", cell.Name)
	}
	if cell.OwnerID != "" {
		return fmt.Errorf("cell %q already owned", cell.Name)
	}
	cell.OwnerID = playerID
	return nil
}

// SellCell returns a cell to the bank and computes the refund: half the
// price plus half of any improvement and residence spend, rounded down.
func (b *Board) SellCell(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	refund := 0
	if !cell.Mortgaged {
		refund = cell.Price / 2
	}
	refund += cell.Improvements * cell.ImprovementCost / 2
	if cell.Residence {
		refund += cell.ResidenceCost / 2
	}
	cell.OwnerID = ""
	cell.Mortgaged = false
	cell.Improvements = 0
	cell.Residence = false
	return refund, nil
}

// MortgageCell mortgages an unimproved owned cell and returns the loan
// value, half the price rounded down. Mortgaged cells yield no rent.
func (b *Board) MortgageCell(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	if cell.Mortgaged {
		return 0, fmt.Errorf("cell %q already mortgaged", cell.Name)
	}
	if cell.Improvements > 0 || cell.Residence {
		return 0, fmt.Errorf("cell %q has improvements", cell.Name)
	}
	cell.Mortgaged = true
	return cell.Price / 2, nil
}

// UnmortgageCell lifts a mortgage and returns the repayment cost.
func (b *Board) UnmortgageCell(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	if !cell.Mortgaged {
		return 0, fmt.Errorf("cell %q not mortgaged", cell.Name)
	}
	cell.Mortgaged = false
	return cell.Price / 2, nil
}

// AddImprovement raises the improvement level of a cell and returns the
// cost. Requires the full color-group monopoly, an unmortgaged cell, and
// group-balanced leveling: a cell may only be improved while at the group
// minimum level.
func (b *Board) AddImprovement(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	if cell.Mortgaged {
		return 0, fmt.Errorf("cell %q is mortgaged", cell.Name)
	}
	if cell.Type != CellProperty {
		return 0, fmt.Errorf("cell %q cannot be improved", cell.Name)
	}
	if !b.ownsGroup(playerID, cell.Group) {
		return 0, fmt.Errorf("%s does not hold the %s monopoly", playerID, cell.Group)
	}
	if cell.Improvements >= cell.MaxImprovement() {
		return 0, fmt.Errorf("cell %q already at maximum level", cell.Name)
	}
	if cell.Improvements > b.groupMinLevel(cell.Group) {
		return 0, fmt.Errorf("cell %q would unbalance the %s group", cell.Name, cell.Group)
	}
	cell.Improvements++
	return cell.ImprovementCost, nil
}

// RemoveImprovement lowers the improvement level and returns the refund,
// half the improvement cost rounded down. Leveling stays group-balanced
// on the way down: only cells at the group maximum may be lowered.
func (b *Board) RemoveImprovement(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	if cell.Improvements == 0 {
		return 0, fmt.Errorf("cell %q has no improvements", cell.Name)
	}
	if cell.Residence {
		return 0, fmt.Errorf("cell %q has a residence", cell.Name)
	}
	if cell.Improvements < b.groupMaxLevel(cell.Group) {
		return 0, fmt.Errorf("cell %q would unbalance the %s group", cell.Name, cell.Group)
	}
	cell.Improvements--
	return cell.ImprovementCost / 2, nil
}

// BuildResidence places the capstone upgrade on a cell and returns the
// cost. Every cell in the group must be at maximum improvement level.
func (b *Board) BuildResidence(pos int, playerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return 0, fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != playerID {
		return 0, fmt.Errorf("cell %q not owned by %s", cell.Name, playerID)
	}
	if cell.Mortgaged {
		return 0, fmt.Errorf("cell %q is mortgaged", cell.Name)
	}
	if cell.Residence {
		return 0, fmt.Errorf("cell %q already has a residence", cell.Name)
	}
	if !b.ownsGroup(playerID, cell.Group) {
		return 0, fmt.Errorf("%s does not hold the %s monopoly", playerID, cell.Group)
	}
	for _, gc := range b.groupCells(cell.Group) {
		if gc.Improvements < gc.MaxImprovement() {
			return 0, fmt.Errorf("group %s not fully improved", cell.Group)
		}
	}
	cell.Residence = true
	return cell.ResidenceCost, nil
}

// TransferProperty moves ownership between players, preserving mortgage
// and improvement state. Used by trades and bankruptcy resolution.
func (b *Board) TransferProperty(pos int, fromID, toID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return fmt.Errorf("no cell at position %d", pos)
	}
	if cell.OwnerID != fromID {
		return fmt.Errorf("cell %q not owned by %s", cell.Name, fromID)
	}
	cell.OwnerID = toID
	return nil
}

// ReleaseProperty returns a cell to the bank, clearing all upgrade state.
// Used when a bankrupt player's debt has no player creditor.
func (b *Board) ReleaseProperty(pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cell := b.cellAt(pos)
	if cell == nil {
		return
	}
	cell.OwnerID = ""
	cell.Mortgaged = false
	cell.Improvements = 0
	cell.Residence = false
}

// OwnsGroup reports whether playerID owns every cell in the group.
func (b *Board) OwnsGroup(playerID, group string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ownsGroup(playerID, group)
}

func (b *Board) ownsGroup(playerID, group string) bool {
	if group == "" {
		return false
	}
	found := false
	for _, cell := range b.cells {
		if cell.Group != group || !cell.Ownable() {
			continue
		}
		found = true
		if cell.OwnerID != playerID {
			return false
		}
	}
	return found
}

func (b *Board) groupCells(group string) []*Cell {
	cells := make([]*Cell, 0, 3)
	for _, cell := range b.cells {
		if cell.Group == group && cell.Ownable() {
			cells = append(cells, cell)
		}
	}
	return cells
}

func (b *Board) groupMinLevel(group string) int {
	min := -1
	for _, cell := range b.groupCells(group) {
		if min == -1 || cell.Improvements < min {
			min = cell.Improvements
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

func (b *Board) groupMaxLevel(group string) int {
	max := 0
	for _, cell := range b.groupCells(group) {
		if cell.Improvements > max {
			max = cell.Improvements
		}
	}
	return max
}

// OwnedPositions returns the positions owned by playerID in board order.
func (b *Board) OwnedPositions(playerID string) []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	positions := make([]int, 0, 4)
	for _, cell := range b.cells {
		if cell.OwnerID == playerID {
			positions = append(positions, cell.Position)
		}
	}
	return positions
}

// Weather returns the active weather.
func (b *Board) Weather() economy.Weather {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.weather
}

// SetWeather replaces the active weather.
func (b *Board) SetWeather(w economy.Weather) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.weather = w
}

// EconomicEvent returns the active economic event, or nil.
func (b *Board) EconomicEvent() *economy.EconomicEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.economic == nil {
		return nil
	}
	evt := *b.economic
	return &evt
}

// SetEconomicEvent replaces the active economic event; nil clears it.
func (b *Board) SetEconomicEvent(evt *economy.EconomicEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if evt == nil {
		b.economic = nil
		return
	}
	cp := *evt
	b.economic = &cp
}

// CulturalEvent returns the active cultural event, or nil.
func (b *Board) CulturalEvent() *economy.CulturalEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cultural == nil {
		return nil
	}
	evt := *b.cultural
	return &evt
}

// SetCulturalEvent replaces the active cultural event; nil clears it.
func (b *Board) SetCulturalEvent(evt *economy.CulturalEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if evt == nil {
		b.cultural = nil
		return
	}
	cp := *evt
	b.cultural = &cp
}
