package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/magnategame/magnate-server/internal/game/economy"
	"github.com/magnategame/magnate-server/internal/game/rules"
)

// PlayerSnapshot is the persisted shape of one player.
type PlayerSnapshot struct {
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
}

// BoardSnapshot is the persisted shape of the board: cells plus active
// modifier state.
type BoardSnapshot struct {
	Cells    []Cell                 `json:"cells"`
	Weather  economy.Weather        `json:"weather"`
	Economic *economy.EconomicEvent `json:"economic,omitempty"`
	Cultural *economy.CulturalEvent `json:"cultural,omitempty"`
}

// Snapshot is the serializable union of game, player and board state.
// Round-tripping through LoadState reproduces identical ownership, money
// and active-event fields.
type Snapshot struct {
	GameID        string           `json:"game_id"`
	Status        rules.GameStatus `json:"status"`
	Phase         rules.TurnPhase  `json:"phase"`
	TurnNumber    int              `json:"turn_number"`
	CurrentPlayer int              `json:"current_player"`
	DoublesCount  int              `json:"doubles_count"`
	Players       []PlayerSnapshot `json:"players"`
	Board         BoardSnapshot    `json:"board"`
	Timestamp     time.Time        `json:"timestamp"`
}

// SaveState captures a consistent snapshot of the full game state.
func (g *Game) SaveState() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make([]PlayerSnapshot, 0, len(g.players))
	for _, player := range g.players {
		players = append(players, PlayerSnapshot{
			ID:         player.ID,
			Name:       player.Name,
			Token:      player.Token,
			Money:      player.Money,
			Position:   player.Position,
			Properties: append([]int(nil), player.Properties...),
			InJail:     player.InJail,
			JailTurns:  player.JailTurns,
			Bankrupt:   player.Bankrupt,
			Stats:      player.Stats,
		})
	}

	return Snapshot{
		GameID:        g.id,
		Status:        g.status,
		Phase:         g.phase,
		TurnNumber:    g.turnNumber,
		CurrentPlayer: g.current,
		DoublesCount:  g.doublesCount,
		Players:       players,
		Board:         g.board.State(),
		Timestamp:     time.Now(),
	}
}

// State captures the board's persisted shape.
func (b *Board) State() BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cells := make([]Cell, 0, len(b.cells))
	for _, cell := range b.cells {
		cp := *cell
		cp.Rents = append([]int(nil), cell.Rents...)
		cells = append(cells, cp)
	}
	snap := BoardSnapshot{Cells: cells, Weather: b.weather}
	if b.economic != nil {
		evt := *b.economic
		snap.Economic = &evt
	}
	if b.cultural != nil {
		evt := *b.cultural
		snap.Cultural = &evt
	}
	return snap
}

// LoadState restores a previously saved snapshot into the board.
func (b *Board) LoadState(snap BoardSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(snap.Cells) != len(b.cells) {
		return fmt.Errorf("cell count mismatch: snapshot has %d, board has %d", len(snap.Cells), len(b.cells))
	}
	for i := range snap.Cells {
		cp := snap.Cells[i]
		cp.Rents = append([]int(nil), snap.Cells[i].Rents...)
		b.cells[i] = &cp
	}
	b.weather = snap.Weather
	b.economic = nil
	if snap.Economic != nil {
		evt := *snap.Economic
		b.economic = &evt
	}
	b.cultural = nil
	if snap.Cultural != nil {
		evt := *snap.Cultural
		b.cultural = &evt
	}
	return nil
}

// LoadState restores a saved game into this instance, replacing players,
// turn state and board state.
func (g *Game) LoadState(snap Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(snap.Players) == 0 {
		return fmt.Errorf("snapshot has no players")
	}
	if snap.CurrentPlayer < 0 || snap.CurrentPlayer >= len(snap.Players) {
		return fmt.Errorf("current player index %d out of range", snap.CurrentPlayer)
	}
	if err := g.board.LoadState(snap.Board); err != nil {
		return err
	}

	g.players = g.players[:0]
	for _, ps := range snap.Players {
		player := NewPlayer(ps.ID, ps.Name, ps.Token, ps.Money, g.board.Size(), g.cfg.Salary, g.emit)
		player.Position = ps.Position
		player.Properties = append([]int(nil), ps.Properties...)
		player.InJail = ps.InJail
		player.JailTurns = ps.JailTurns
		player.Bankrupt = ps.Bankrupt
		player.Stats = ps.Stats
		g.players = append(g.players, player)
	}

	g.id = snap.GameID
	g.status = snap.Status
	g.phase = snap.Phase
	g.turnNumber = snap.TurnNumber
	g.current = snap.CurrentPlayer
	g.doublesCount = snap.DoublesCount
	g.ended = snap.Status == rules.StatusFinished
	if g.startTime.IsZero() {
		g.startTime = time.Now()
	}
	return nil
}

// Checksum computes a deterministic digest of the snapshot, excluding
// the capture timestamp. Two snapshots of identical game state produce
// identical checksums regardless of when they were taken.
func (s Snapshot) Checksum() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GAME:%s|%d|%d|%d|%d\n", s.GameID, s.Status, s.Phase, s.TurnNumber, s.CurrentPlayer)

	for _, player := range s.Players {
		positions := append([]int(nil), player.Properties...)
		sort.Ints(positions)
		fmt.Fprintf(&buf, "PLAYER:%s|%d|%d|%t|%t|%v\n",
			player.ID, player.Money, player.Position, player.InJail, player.Bankrupt, positions)
	}
	for _, cell := range s.Board.Cells {
		fmt.Fprintf(&buf, "CELL:%d|%s|%t|%d|%t\n",
			cell.Position, cell.OwnerID, cell.Mortgaged, cell.Improvements, cell.Residence)
	}
	fmt.Fprintf(&buf, "WEATHER:%s\n", s.Board.Weather)
	if s.Board.Economic != nil {
		fmt.Fprintf(&buf, "ECONOMIC:%s|%d|%g|%d\n",
			s.Board.Economic.Name, s.Board.Economic.Kind, s.Board.Economic.Value, s.Board.Economic.Duration)
	}
	if s.Board.Cultural != nil {
		fmt.Fprintf(&buf, "CULTURAL:%s|%d|%d\n",
			s.Board.Cultural.Name, s.Board.Cultural.Bonus, s.Board.Cultural.Duration)
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
