package game

import (
	"math"

	"github.com/magnategame/magnate-server/internal/game/economy"
)

// rentStep is one stage of the rent pipeline. Steps are applied in a
// fixed order and each carries an explicit modifier kind, so nothing is
// inferred from event shape.
type rentStep struct {
	name  string
	kind  economy.ModifierKind
	value float64
}

func (s rentStep) apply(rent float64) float64 {
	switch s.kind {
	case economy.ModifierAdditive:
		return rent + s.value
	default:
		return rent * s.value
	}
}

// CalculateRent computes the rent owed for landing on pos, owned by
// ownerID. Mortgaged or unowned cells yield zero. The pipeline runs
// base rent at the current improvement level, then residence x2, then
// monopoly x1.5, then weather, then the economic event (multiplicative
// or additive per its tag), then the cultural flat bonus; the result is
// floored exactly once.
func (b *Board) CalculateRent(pos int, ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cell := b.cellAt(pos)
	if cell == nil || !cell.Ownable() {
		return 0
	}
	if cell.OwnerID == "" || cell.OwnerID != ownerID {
		return 0
	}
	if cell.Mortgaged {
		return 0
	}

	rent := baseRent(cell)
	for _, step := range b.rentPipeline(cell, ownerID) {
		rent = step.apply(rent)
	}
	return int(math.Floor(rent))
}

func baseRent(cell *Cell) float64 {
	switch {
	case len(cell.Rents) > 0:
		level := cell.Improvements
		if level > cell.MaxImprovement() {
			level = cell.MaxImprovement()
		}
		return float64(cell.Rents[level])
	case cell.RentFactor > 0:
		return float64(cell.Price) * cell.RentFactor
	default:
		return float64(cell.FlatRent)
	}
}

// rentPipeline assembles the ordered modifier steps for a cell. Caller
// holds b.mu.
func (b *Board) rentPipeline(cell *Cell, ownerID string) []rentStep {
	steps := make([]rentStep, 0, 5)
	if cell.Residence {
		steps = append(steps, rentStep{name: "residence", kind: economy.ModifierMultiplicative, value: 2})
	}
	if b.ownsGroup(ownerID, cell.Group) {
		steps = append(steps, rentStep{name: "monopoly", kind: economy.ModifierMultiplicative, value: 1.5})
	}
	if m := b.weather.RentMultiplier(); m != 1.0 {
		steps = append(steps, rentStep{name: "weather", kind: economy.ModifierMultiplicative, value: m})
	}
	if b.economic != nil {
		steps = append(steps, rentStep{name: "economic", kind: b.economic.Kind, value: b.economic.Value})
	}
	if b.cultural != nil {
		steps = append(steps, rentStep{name: "cultural", kind: economy.ModifierAdditive, value: float64(b.cultural.Bonus)})
	}
	return steps
}
