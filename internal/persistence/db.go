// Package persistence stores worlds: a JSON map file for editing and
// exchange, and a SQLite save database for games in progress.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexwar/internal/game"
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tiles (
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		s INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		locality TEXT,
		locality_name TEXT,
		owner INTEGER,
		army_owner INTEGER,
		army_manpower INTEGER,
		army_morale INTEGER,
		army_can_move INTEGER,
		PRIMARY KEY (q, r)
	);

	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		player INTEGER NOT NULL,
		from_q INTEGER NOT NULL,
		from_r INTEGER NOT NULL,
		to_q INTEGER NOT NULL,
		to_r INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tiles_owner ON tiles(owner);
	CREATE INDEX IF NOT EXISTS idx_moves_turn ON moves(turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type tileRow struct {
	Q            int            `db:"q"`
	R            int            `db:"r"`
	S            int            `db:"s"`
	Terrain      string         `db:"terrain"`
	Locality     sql.NullString `db:"locality"`
	LocalityName sql.NullString `db:"locality_name"`
	Owner        sql.NullInt64  `db:"owner"`
	ArmyOwner    sql.NullInt64  `db:"army_owner"`
	ArmyManpower sql.NullInt64  `db:"army_manpower"`
	ArmyMorale   sql.NullInt64  `db:"army_morale"`
	ArmyCanMove  sql.NullBool   `db:"army_can_move"`
}

func (row tileRow) tile() (hex.Cube, world.Tile, error) {
	c, err := hex.NewCube(row.Q, row.R, row.S)
	if err != nil {
		return c, world.Tile{}, err
	}
	var t world.Tile
	if t.Terrain, err = world.ParseTerrain(row.Terrain); err != nil {
		return c, t, err
	}
	if row.Locality.Valid {
		cat, err := world.ParseLocality(row.Locality.String)
		if err != nil {
			return c, t, err
		}
		t.Locality = &world.Locality{Category: cat, Name: row.LocalityName.String}
	}
	if row.Owner.Valid {
		t.Owner = world.Owner(world.PlayerIndex(row.Owner.Int64))
	}
	if row.ArmyOwner.Valid {
		t.Army = &world.Army{
			Owner:    world.PlayerIndex(row.ArmyOwner.Int64),
			Manpower: uint32(row.ArmyManpower.Int64),
			Morale:   uint32(row.ArmyMorale.Int64),
			CanMove:  row.ArmyCanMove.Bool,
		}
	}
	return c, t, nil
}

// SaveTiles writes every tile of the world (full replace).
func (db *DB) SaveTiles(w *world.World) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tiles"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO tiles
		(q, r, s, terrain, locality, locality_name, owner,
		 army_owner, army_manpower, army_morale, army_can_move)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range w.Tiles() {
		var row tileRow
		row.Q, row.R, row.S = e.Coord.Q, e.Coord.R, e.Coord.S()
		row.Terrain = e.Tile.Terrain.String()
		if l := e.Tile.Locality; l != nil {
			row.Locality = sql.NullString{String: l.Category.String(), Valid: true}
			row.LocalityName = sql.NullString{String: l.Name, Valid: l.Name != ""}
		}
		if o := e.Tile.Owner; o != nil {
			row.Owner = sql.NullInt64{Int64: int64(*o), Valid: true}
		}
		if a := e.Tile.Army; a != nil {
			row.ArmyOwner = sql.NullInt64{Int64: int64(a.Owner), Valid: true}
			row.ArmyManpower = sql.NullInt64{Int64: int64(a.Manpower), Valid: true}
			row.ArmyMorale = sql.NullInt64{Int64: int64(a.Morale), Valid: true}
			row.ArmyCanMove = sql.NullBool{Bool: a.CanMove, Valid: true}
		}

		_, err := stmt.Exec(
			row.Q, row.R, row.S, row.Terrain, row.Locality, row.LocalityName, row.Owner,
			row.ArmyOwner, row.ArmyManpower, row.ArmyMorale, row.ArmyCanMove,
		)
		if err != nil {
			return fmt.Errorf("insert tile %v: %w", e.Coord, err)
		}
	}

	return tx.Commit()
}

// LoadTiles reads the saved tiles. Rows that break the cube invariant or
// name unknown categories fail the whole load.
func (db *DB) LoadTiles() (map[hex.Cube]world.Tile, error) {
	var rows []tileRow
	err := db.conn.Select(&rows, `SELECT q, r, s, terrain, locality, locality_name, owner,
		army_owner, army_manpower, army_morale, army_can_move FROM tiles`)
	if err != nil {
		return nil, fmt.Errorf("%w: select tiles: %w", ErrLoadFailed, err)
	}

	tiles := make(map[hex.Cube]world.Tile, len(rows))
	for _, row := range rows {
		c, t, err := row.tile()
		if err != nil {
			return nil, fmt.Errorf("%w: tile (%d,%d,%d): %w", ErrLoadFailed, row.Q, row.R, row.S, err)
		}
		tiles[c] = t
	}
	return tiles, nil
}

// HasWorld reports whether a world has been saved.
func (db *DB) HasWorld() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM tiles"); err != nil {
		return false
	}
	return n > 0
}

// SaveMoves appends moves to the move log.
func (db *DB) SaveMoves(moves []game.Move) error {
	if len(moves) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range moves {
		_, err := tx.Exec(
			"INSERT INTO moves (turn, player, from_q, from_r, to_q, to_r) VALUES (?, ?, ?, ?, ?, ?)",
			m.Turn, m.Player, m.From.Q, m.From.R, m.To.Q, m.To.R,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentMoves returns the most recent N moves, newest first.
func (db *DB) RecentMoves(limit int) ([]game.Move, error) {
	var rows []struct {
		Turn   int `db:"turn"`
		Player int `db:"player"`
		FromQ  int `db:"from_q"`
		FromR  int `db:"from_r"`
		ToQ    int `db:"to_q"`
		ToR    int `db:"to_r"`
	}
	err := db.conn.Select(&rows,
		"SELECT turn, player, from_q, from_r, to_q, to_r FROM moves ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	moves := make([]game.Move, len(rows))
	for i, r := range rows {
		moves[i] = game.Move{
			Turn:   r.Turn,
			Player: world.PlayerIndex(r.Player),
			From:   hex.New(r.FromQ, r.FromR),
			To:     hex.New(r.ToQ, r.ToR),
		}
	}
	return moves, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// MapID returns the saved map's identifier, minting one on first use.
func (db *DB) MapID() (string, error) {
	id, err := db.GetMeta("map_id")
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if err := db.SaveMeta("map_id", id); err != nil {
		return "", err
	}
	return id, nil
}

// SaveGame performs a full save of the world and turn state. Moves already
// logged are not written again; pass only the ones made since the last save.
func (db *DB) SaveGame(g *game.Game, newMoves []game.Move) error {
	w := g.World()
	slog.Info("saving game", "tiles", w.Len(), "turn", g.Turn(), "moves", len(newMoves))

	if err := db.SaveTiles(w); err != nil {
		return fmt.Errorf("save tiles: %w", err)
	}
	if err := db.SaveMoves(newMoves); err != nil {
		return fmt.Errorf("save moves: %w", err)
	}
	if _, err := db.MapID(); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	meta := map[string]string{
		"current_player": strconv.Itoa(int(g.Current())),
		"turn":           strconv.Itoa(g.Turn()),
		"players":        strconv.Itoa(g.Players()),
		"saved_at":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	slog.Info("game saved")
	return nil
}

// LoadGame rebuilds a game from the saved world and turn state.
func (db *DB) LoadGame(policy world.MovePolicy) (*game.Game, error) {
	tiles, err := db.LoadTiles()
	if err != nil {
		return nil, err
	}
	w, err := world.FromTiles(tiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	players := db.metaInt("players", 0)
	g := game.New(w, players, policy)
	current := db.metaInt("current_player", 0)
	turn := db.metaInt("turn", 1)
	if err := g.Resume(world.PlayerIndex(current), turn); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	slog.Info("game loaded", "tiles", w.Len(), "players", g.Players(), "turn", turn)
	return g, nil
}

func (db *DB) metaInt(key string, def int) int {
	v, err := db.GetMeta(key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("bad meta value", "key", key, "value", v)
		return def
	}
	return n
}
