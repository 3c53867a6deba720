package world

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/talgya/hexwar/internal/hex"
)

type cubeSet map[hex.Cube]struct{}

// store is the tile map plus its derived indices. It has no locking of its
// own; World and Batch provide the exclusive-writer discipline around it.
type store struct {
	tiles      map[hex.Cube]*Tile
	owned      map[PlayerIndex]cubeSet      // player → owned coordinates
	localities map[LocalityCategory]cubeSet // category → coordinates
}

func newStore() store {
	return store{
		tiles:      make(map[hex.Cube]*Tile),
		owned:      make(map[PlayerIndex]cubeSet),
		localities: make(map[LocalityCategory]cubeSet),
	}
}

// World is the authoritative mapping from coordinate to tile. All methods
// are safe for concurrent use: readers share a lock, and every mutation of
// the tile map and its indices is applied under one exclusive lock.
type World struct {
	mu sync.RWMutex
	s  store
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{s: newStore()}
}

// FromTiles builds a world from a bulk tile set, validating every tile.
func FromTiles(tiles map[hex.Cube]Tile) (*World, error) {
	w := NewWorld()
	if err := w.Replace(tiles); err != nil {
		return nil, err
	}
	return w, nil
}

// Entry pairs a coordinate with a copy of its tile.
type Entry struct {
	Coord hex.Cube
	Tile  Tile
}

// ── index maintenance ──────────────────────────────────────────────

func (s *store) index(c hex.Cube, t *Tile) {
	if t.Owner != nil {
		addTo(s.owned, *t.Owner, c)
	}
	if t.Locality != nil {
		addTo(s.localities, t.Locality.Category, c)
	}
}

func (s *store) unindex(c hex.Cube, t *Tile) {
	if t.Owner != nil {
		removeFrom(s.owned, *t.Owner, c)
	}
	if t.Locality != nil {
		removeFrom(s.localities, t.Locality.Category, c)
	}
}

func addTo[K comparable](idx map[K]cubeSet, k K, c hex.Cube) {
	set, ok := idx[k]
	if !ok {
		set = make(cubeSet)
		idx[k] = set
	}
	set[c] = struct{}{}
}

func removeFrom[K comparable](idx map[K]cubeSet, k K, c hex.Cube) {
	set, ok := idx[k]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(idx, k)
	}
}

// modify re-indexes a tile around fn and drops an army the terrain cannot hold.
func (s *store) modify(c hex.Cube, fn func(t *Tile)) bool {
	t, ok := s.tiles[c]
	if !ok {
		return false
	}
	s.unindex(c, t)
	fn(t)
	if t.Army != nil && !t.Terrain.AllowsArmy() {
		t.Army = nil
	}
	s.index(c, t)
	return true
}

// ── store mutations (caller holds the write lock) ──────────────────

func (s *store) upsertTerrain(c hex.Cube, terrain Terrain) {
	if s.modify(c, func(t *Tile) { t.Terrain = terrain }) {
		return
	}
	s.tiles[c] = &Tile{Terrain: terrain}
}

func (s *store) clearTerrain(c hex.Cube) bool {
	t, ok := s.tiles[c]
	if !ok {
		return false
	}
	s.unindex(c, t)
	delete(s.tiles, c)
	return true
}

func (s *store) setLocality(c hex.Cube, loc *Locality) bool {
	return s.modify(c, func(t *Tile) {
		if loc == nil {
			t.Locality = nil
			return
		}
		l := *loc
		t.Locality = &l
	})
}

func (s *store) setOwnership(c hex.Cube, owner *PlayerIndex) bool {
	return s.modify(c, func(t *Tile) {
		if owner == nil {
			t.Owner = nil
			return
		}
		t.Owner = Owner(*owner)
	})
}

func (s *store) placeArmy(c hex.Cube, a Army) bool {
	t, ok := s.tiles[c]
	if !ok || t.Army != nil || !t.Terrain.AllowsArmy() {
		return false
	}
	t.Army = &a
	return true
}

func (s *store) removeArmy(c hex.Cube) (Army, bool) {
	t, ok := s.tiles[c]
	if !ok || t.Army == nil {
		return Army{}, false
	}
	a := *t.Army
	t.Army = nil
	return a, true
}

func (s *store) get(c hex.Cube) (Tile, bool) {
	t, ok := s.tiles[c]
	if !ok {
		return Tile{}, false
	}
	return t.Clone(), true
}

// ── World: locked access ───────────────────────────────────────────

// Get returns a copy of the tile at c. A missing tile is not an error.
func (w *World) Get(c hex.Cube) (Tile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.s.get(c)
}

// Has reports whether a tile exists at c.
func (w *World) Has(c hex.Cube) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.s.tiles[c]
	return ok
}

// Mutate runs fn on the live tile at c under the write lock and re-indexes
// it afterwards. Returns false without calling fn if there is no tile.
func (w *World) Mutate(c hex.Cube, fn func(t *Tile)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.modify(c, fn)
}

// UpsertTerrain replaces the terrain of an existing tile in place, keeping
// its locality, ownership and army, or creates a bare tile. An army on
// terrain that no longer permits it is discarded.
func (w *World) UpsertTerrain(c hex.Cube, terrain Terrain) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.s.upsertTerrain(c, terrain)
}

// ClearTerrain removes the tile entirely. Reports whether one existed.
func (w *World) ClearTerrain(c hex.Cube) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.clearTerrain(c)
}

// SetLocality sets (or with nil clears) the locality. No-op on a missing tile.
func (w *World) SetLocality(c hex.Cube, loc *Locality) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.setLocality(c, loc)
}

// SetOwnership sets (or with nil clears) the owner. No-op on a missing tile.
func (w *World) SetOwnership(c hex.Cube, owner *PlayerIndex) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.setOwnership(c, owner)
}

// PlaceArmy puts an army on an existing, empty tile whose terrain allows it.
func (w *World) PlaceArmy(c hex.Cube, a Army) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.placeArmy(c, a)
}

// RemoveArmy lifts the army off c and returns it.
func (w *World) RemoveArmy(c hex.Cube) (Army, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.s.removeArmy(c)
}

// Batch exposes store mutations inside a single Update call.
type Batch struct {
	s *store
}

func (b *Batch) Get(c hex.Cube) (Tile, bool) {
	return b.s.get(c)
}

func (b *Batch) UpsertTerrain(c hex.Cube, terrain Terrain) {
	b.s.upsertTerrain(c, terrain)
}

func (b *Batch) ClearTerrain(c hex.Cube) bool {
	return b.s.clearTerrain(c)
}

func (b *Batch) SetLocality(c hex.Cube, loc *Locality) bool {
	return b.s.setLocality(c, loc)
}

func (b *Batch) SetOwnership(c hex.Cube, o *PlayerIndex) bool {
	return b.s.setOwnership(c, o)
}

func (b *Batch) PlaceArmy(c hex.Cube, a Army) bool {
	return b.s.placeArmy(c, a)
}

func (b *Batch) RemoveArmy(c hex.Cube) (Army, bool) {
	return b.s.removeArmy(c)
}

func (b *Batch) Mutate(c hex.Cube, fn func(t *Tile)) bool {
	return b.s.modify(c, fn)
}

// Update applies several mutations as one atomic unit: readers see either
// none or all of them. If fn returns an error the changes made so far are
// kept; callers validate before mutating.
func (w *World) Update(fn func(b *Batch) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(&Batch{s: &w.s})
}

// ── queries ────────────────────────────────────────────────────────

// Len returns the number of tiles.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.s.tiles)
}

// Tiles returns every tile, ordered by coordinate.
func (w *World) Tiles() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entry, 0, len(w.s.tiles))
	for _, c := range sortedKeys(w.s.tiles) {
		out = append(out, Entry{Coord: c, Tile: w.s.tiles[c].Clone()})
	}
	return out
}

// OwnedBy returns the coordinates owned by player p, ordered.
func (w *World) OwnedBy(p PlayerIndex) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.s.owned[p])
}

// WithLocality returns the coordinates carrying a locality of category c.
func (w *World) WithLocality(c LocalityCategory) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.s.localities[c])
}

// Players returns every player that owns at least one tile.
func (w *World) Players() []PlayerIndex {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.s.owned))
}

// Armies returns the coordinates of armies belonging to player p.
func (w *World) Armies(p PlayerIndex) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.s.armies(p)
}

// Armies is World.Armies seen from inside an Update.
func (b *Batch) Armies(p PlayerIndex) []hex.Cube {
	return b.s.armies(p)
}

func (s *store) armies(p PlayerIndex) []hex.Cube {
	var out []hex.Cube
	for c, t := range s.tiles {
		if t.Army != nil && t.Army.Owner == p {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, hex.Compare)
	return out
}

// Radius returns the largest distance of any tile from the origin.
func (w *World) Radius() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r := 0
	for c := range w.s.tiles {
		r = max(r, c.Length())
	}
	return r
}

// Snapshot returns a deep copy of the tile map.
func (w *World) Snapshot() map[hex.Cube]Tile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[hex.Cube]Tile, len(w.s.tiles))
	for c, t := range w.s.tiles {
		out[c] = t.Clone()
	}
	return out
}

// Replace swaps in a whole tile set, e.g. after loading a map. Tiles are
// validated first; on error the world is left untouched.
func (w *World) Replace(tiles map[hex.Cube]Tile) error {
	next := newStore()
	for c, t := range tiles {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tile %v: %w", c, err)
		}
		tc := t.Clone()
		next.tiles[c] = &tc
		next.index(c, &tc)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.s = next
	return nil
}

// RebuildIndices recomputes the derived indices from the tile map.
func (w *World) RebuildIndices() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.s.owned, w.s.localities = w.s.rebuilt()
}

func (s *store) rebuilt() (map[PlayerIndex]cubeSet, map[LocalityCategory]cubeSet) {
	fresh := store{
		owned:      make(map[PlayerIndex]cubeSet),
		localities: make(map[LocalityCategory]cubeSet),
	}
	for c, t := range s.tiles {
		fresh.index(c, t)
	}
	return fresh.owned, fresh.localities
}

// CheckIndices compares the incrementally maintained indices with a full
// rebuild and reports the first difference.
func (w *World) CheckIndices() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	owned, localities := w.s.rebuilt()
	if err := diffIndex("ownership", w.s.owned, owned); err != nil {
		return err
	}
	return diffIndex("locality", w.s.localities, localities)
}

func diffIndex[K comparable](name string, have, want map[K]cubeSet) error {
	if len(have) != len(want) {
		return fmt.Errorf("%s index: %d buckets, rebuild has %d", name, len(have), len(want))
	}
	for k, ws := range want {
		hs := have[k]
		if len(hs) != len(ws) {
			return fmt.Errorf("%s index %v: %d entries, rebuild has %d", name, k, len(hs), len(ws))
		}
		for c := range ws {
			if _, ok := hs[c]; !ok {
				return fmt.Errorf("%s index %v: missing %v", name, k, c)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[hex.Cube]V) []hex.Cube {
	out := make([]hex.Cube, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	slices.SortFunc(out, hex.Compare)
	return out
}

// String returns a summary of the world.
func (w *World) String() string {
	return fmt.Sprintf("World(tiles=%d, radius=%d)", w.Len(), w.Radius())
}
