package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/game"
)

const savedGamesSchema = `
CREATE TABLE IF NOT EXISTS saved_games (
	game_id    TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SavedGame is one row of snapshot metadata.
type SavedGame struct {
	GameID    string
	Status    string
	UpdatedAt time.Time
}

// GameRepository persists serialized game snapshots.
type GameRepository struct {
	db *DB
}

// NewGameRepository creates a repository over the shared pool.
func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

// EnsureSchema creates the saved_games table when missing.
func (r *GameRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.pool.Exec(ctx, savedGamesSchema); err != nil {
		return fmt.Errorf("create saved_games table: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the snapshot for its game id.
func (r *GameRepository) SaveSnapshot(ctx context.Context, snap game.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO saved_games (game_id, status, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (game_id)
		DO UPDATE SET status = $2, snapshot = $3, updated_at = now()`,
		snap.GameID, snap.Status.String(), payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.GameID, err)
	}
	r.db.logger.Debug("snapshot saved", zap.String("game_id", snap.GameID))
	return nil
}

// LoadSnapshot retrieves the snapshot for a game id.
func (r *GameRepository) LoadSnapshot(ctx context.Context, gameID string) (game.Snapshot, error) {
	var payload []byte
	row := r.db.pool.QueryRow(ctx, `SELECT snapshot FROM saved_games WHERE game_id = $1`, gameID)
	if err := row.Scan(&payload); err != nil {
		return game.Snapshot{}, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", gameID, err)
	}
	return snap, nil
}

// ListSnapshots returns metadata for every saved game, newest first.
func (r *GameRepository) ListSnapshots(ctx context.Context) ([]SavedGame, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT game_id, status, updated_at FROM saved_games ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var saved []SavedGame
	for rows.Next() {
		var sg SavedGame
		if err := rows.Scan(&sg.GameID, &sg.Status, &sg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan saved game: %w", err)
		}
		saved = append(saved, sg)
	}
	return saved, rows.Err()
}

// DeleteSnapshot removes a saved game.
func (r *GameRepository) DeleteSnapshot(ctx context.Context, gameID string) error {
	if _, err := r.db.pool.Exec(ctx, `DELETE FROM saved_games WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", gameID, err)
	}
	return nil
}
