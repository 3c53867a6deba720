package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/hexwar/internal/game"
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestDBOpenClose(t *testing.T) {
	_, dbPath := openTestDB(t)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestDBTilesRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	if db.HasWorld() {
		t.Error("fresh database reports a world")
	}

	w := sampleWorld()
	if err := db.SaveTiles(w); err != nil {
		t.Fatalf("SaveTiles() failed: %v", err)
	}
	if !db.HasWorld() {
		t.Error("HasWorld() = false after save")
	}
	// Saving twice replaces rather than duplicates.
	if err := db.SaveTiles(w); err != nil {
		t.Fatalf("second SaveTiles() failed: %v", err)
	}

	tiles, err := db.LoadTiles()
	if err != nil {
		t.Fatalf("LoadTiles() failed: %v", err)
	}
	loaded, err := world.FromTiles(tiles)
	if err != nil {
		t.Fatal(err)
	}
	assertSameWorld(t, w, loaded)
}

func TestDBMapID(t *testing.T) {
	db, _ := openTestDB(t)
	id, err := db.MapID()
	if err != nil {
		t.Fatalf("MapID() failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("map id %q is not a uuid: %v", id, err)
	}
	again, err := db.MapID()
	if err != nil || again != id {
		t.Errorf("MapID() changed: %q then %q (%v)", id, again, err)
	}
}

func TestDBGameRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)

	g := game.New(sampleWorld(), 2, world.MovePolicy{})
	m, err := g.MoveArmy(hex.New(0, 0), hex.New(0, -1))
	if err != nil {
		t.Fatalf("MoveArmy() failed: %v", err)
	}
	g.EndTurn()

	if err := db.SaveGame(g, g.History()); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	loaded, err := db.LoadGame(world.MovePolicy{})
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if loaded.Current() != 1 || loaded.Turn() != 1 || loaded.Players() != 2 {
		t.Errorf("loaded player %d turn %d players %d", loaded.Current(), loaded.Turn(), loaded.Players())
	}
	assertSameWorld(t, g.World(), loaded.World())

	moves, err := db.RecentMoves(10)
	if err != nil {
		t.Fatalf("RecentMoves() failed: %v", err)
	}
	if len(moves) != 1 || moves[0] != m {
		t.Errorf("RecentMoves() = %v, want [%v]", moves, m)
	}
}

func TestDBLoadRejectsBadRows(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.conn.Exec("INSERT INTO tiles (q, r, s, terrain) VALUES (1, 1, 1, 'farmland')")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadTiles(); err == nil {
		t.Error("LoadTiles() accepted a row off the cube plane")
	}
}
