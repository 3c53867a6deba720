// Package editor paints terrain and localities onto a world with a
// hex-shaped brush.
package editor

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

// Layer selects what the brush paints.
type Layer uint8

const (
	TerrainLayer Layer = iota
	LocalityLayer
)

// Layers lists the brush layers in toggle order.
var Layers = []Layer{TerrainLayer, LocalityLayer}

func (l Layer) String() string {
	switch l {
	case TerrainLayer:
		return "terrain"
	case LocalityLayer:
		return "locality"
	default:
		return fmt.Sprintf("layer(%d)", uint8(l))
	}
}

// slots is the number of brush positions on a layer: one per category plus
// the trailing erase slot.
func (l Layer) slots() int {
	if l == LocalityLayer {
		return len(world.LocalityCategories) + 1
	}
	return len(world.Terrains) + 1
}

// Editor holds the brush state over a world. The world is shared; the
// editor only ever changes it through store operations.
type Editor struct {
	world *world.World

	mu     sync.Mutex
	layout hex.Layout
	layer  Layer
	brush  int // Index into the layer's category list; the last slot erases
	size   int // Brush radius, 0 paints a single tile
	rng    *rand.Rand
}

// New returns an editor on the terrain layer with a single-tile farmland
// brush. seed drives the names given to new localities.
func New(w *world.World, layout hex.Layout, seed int64) *Editor {
	return &Editor{
		world:  w,
		layout: layout,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (e *Editor) World() *world.World {
	return e.world
}

func (e *Editor) Layout() hex.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout
}

// SetLayout replaces the layout wholesale, e.g. after a pan or zoom.
func (e *Editor) SetLayout(l hex.Layout) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layout = l
}

func (e *Editor) Layer() Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layer
}

// Brush returns the brush index within the current layer.
func (e *Editor) Brush() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush
}

// Erasing reports whether the brush is on the erase slot.
func (e *Editor) Erasing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush == e.layer.slots()-1
}

// BrushName describes the current brush, e.g. "terrain:water" or
// "locality:erase".
func (e *Editor) BrushName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	name := "erase"
	switch {
	case e.brush == e.layer.slots()-1:
	case e.layer == TerrainLayer:
		name = world.Terrains[e.brush].String()
	default:
		name = world.LocalityCategories[e.brush].String()
	}
	return e.layer.String() + ":" + name
}

// ParseBrush maps a layer and brush name, as in BrushName, onto a layer
// and brush slot for Select. An empty layer means terrain.
func ParseBrush(layer, brush string) (Layer, int, error) {
	switch strings.ToLower(layer) {
	case "terrain", "":
		if brush == "erase" {
			return TerrainLayer, TerrainLayer.slots() - 1, nil
		}
		t, err := world.ParseTerrain(brush)
		return TerrainLayer, int(t), err
	case "locality":
		if brush == "erase" {
			return LocalityLayer, LocalityLayer.slots() - 1, nil
		}
		c, err := world.ParseLocality(brush)
		return LocalityLayer, int(c), err
	default:
		return 0, 0, fmt.Errorf("editor: unknown layer %q", layer)
	}
}

// CycleBrush moves to the next category on the current layer, wrapping
// through the erase slot back to the first category.
func (e *Editor) CycleBrush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brush = (e.brush + 1) % e.layer.slots()
}

// ToggleLayer switches to the next layer and resets the brush to its first
// category.
func (e *Editor) ToggleLayer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layer = Layers[(int(e.layer)+1)%len(Layers)]
	e.brush = 0
}

// Select jumps straight to a layer and brush index.
func (e *Editor) Select(l Layer, brush int) error {
	if int(l) >= len(Layers) {
		return fmt.Errorf("editor: unknown layer %d", l)
	}
	if brush < 0 || brush >= l.slots() {
		return fmt.Errorf("editor: brush %d out of range for %s layer", brush, l)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layer = l
	e.brush = brush
	return nil
}

func (e *Editor) BrushSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// MaxBrushSize is the largest brush radius (817 hexes per dab).
const MaxBrushSize = 16

// SetBrushSize sets the brush radius, clamped to [0, MaxBrushSize].
func (e *Editor) SetBrushSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.size = min(max(n, 0), MaxBrushSize)
}

// Click paints at the hex under the pixel pos and returns that hex.
func (e *Editor) Click(pos hex.Point) hex.Cube {
	c := e.Layout().HexAt(pos)
	e.Paint(c)
	return c
}

// Stroke paints every hex on the line between two pointer samples, so a
// fast drag leaves no gaps. Samples more than hex.MaxRadius apart are a
// jump, and only the end is painted.
func (e *Editor) Stroke(from, to hex.Point) []hex.Cube {
	l := e.Layout()
	a, b := l.HexAt(from), l.HexAt(to)
	line := []hex.Cube{b}
	if hex.Distance(a, b) <= hex.MaxRadius {
		line = hex.Line(a, b)
	}
	e.paintAll(line)
	return line
}

// Paint applies the brush centred on c.
func (e *Editor) Paint(c hex.Cube) {
	e.paintAll([]hex.Cube{c})
}

func (e *Editor) paintAll(centers []hex.Cube) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[hex.Cube]bool)
	e.world.Update(func(b *world.Batch) error {
		for _, center := range centers {
			for _, c := range center.Disc(e.size) {
				if seen[c] {
					continue
				}
				seen[c] = true
				e.paintTile(b, c)
			}
		}
		return nil
	})
	slog.Debug("painted", "layer", e.layer, "brush", e.brush, "tiles", len(seen))
}

func (e *Editor) paintTile(b *world.Batch, c hex.Cube) {
	erase := e.brush == e.layer.slots()-1
	switch e.layer {
	case TerrainLayer:
		if erase {
			removeTerrain(b, c)
		} else {
			placeTerrain(b, c, world.Terrains[e.brush])
		}
	case LocalityLayer:
		if erase {
			removeLocality(b, c)
		} else {
			e.placeLocality(b, c, world.LocalityCategories[e.brush])
		}
	}
}

// placeTerrain creates the tile if missing, otherwise changes only its
// terrain.
func placeTerrain(b *world.Batch, c hex.Cube, t world.Terrain) {
	b.UpsertTerrain(c, t)
}

// removeTerrain deletes the whole tile.
func removeTerrain(b *world.Batch, c hex.Cube) {
	b.ClearTerrain(c)
}

// placeLocality sets the locality on an existing tile. A tile that already
// has a named locality keeps its name.
func (e *Editor) placeLocality(b *world.Batch, c hex.Cube, cat world.LocalityCategory) {
	t, ok := b.Get(c)
	if !ok {
		return
	}
	loc := &world.Locality{Category: cat}
	switch {
	case t.Locality != nil && t.Locality.Name != "":
		loc.Name = t.Locality.Name
	case cat != world.Airport:
		loc.Name = world.NameFor(e.rng)
	}
	b.SetLocality(c, loc)
}

// removeLocality clears the locality of an existing tile.
func removeLocality(b *world.Batch, c hex.Cube) {
	b.SetLocality(c, nil)
}
