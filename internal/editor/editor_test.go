package editor

import (
	"testing"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

func newEditor() *Editor {
	layout := hex.FlatLayout(hex.Point{X: 32, Y: 32}, hex.Point{X: 300, Y: 300})
	return New(world.NewWorld(), layout, 1)
}

func TestCycleBrushWrapsThroughErase(t *testing.T) {
	e := newEditor()
	n := len(world.Terrains)

	var names []string
	for i := 0; i <= n; i++ {
		names = append(names, e.BrushName())
		e.CycleBrush()
	}
	if e.Brush() != 0 {
		t.Errorf("after %d cycles brush = %d, want 0", n+1, e.Brush())
	}
	want := []string{"terrain:farmland", "terrain:water", "terrain:erase"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("slot %d = %q, want %q", i, names[i], want[i])
		}
	}

	e.ToggleLayer()
	for i := 0; i < len(world.LocalityCategories); i++ {
		e.CycleBrush()
	}
	if !e.Erasing() || e.BrushName() != "locality:erase" {
		t.Errorf("last locality slot = %q, erasing %v", e.BrushName(), e.Erasing())
	}
}

func TestToggleLayerResetsBrush(t *testing.T) {
	e := newEditor()
	e.CycleBrush()
	e.ToggleLayer()
	if e.Layer() != LocalityLayer || e.Brush() != 0 {
		t.Errorf("after toggle: layer %v brush %d", e.Layer(), e.Brush())
	}
	e.ToggleLayer()
	if e.Layer() != TerrainLayer {
		t.Errorf("second toggle: layer %v", e.Layer())
	}
}

func TestTerrainPlaceAndErase(t *testing.T) {
	e := newEditor()
	w := e.World()
	c := hex.New(1, -1)

	e.Paint(c)
	if tile, ok := w.Get(c); !ok || tile.Terrain != world.Farmland {
		t.Fatalf("paint farmland: %+v, %v", tile, ok)
	}
	w.SetOwnership(c, world.Owner(0))

	e.CycleBrush() // water
	e.Paint(c)
	tile, _ := w.Get(c)
	if tile.Terrain != world.Water || !tile.OwnedBy(0) {
		t.Errorf("repaint should change only terrain: %+v", tile)
	}

	e.CycleBrush() // erase
	e.Paint(c)
	if w.Has(c) {
		t.Error("erase left the tile")
	}
	if len(w.OwnedBy(0)) != 0 {
		t.Error("erase left the tile in the ownership index")
	}
}

func TestLocalityPlaceAndErase(t *testing.T) {
	e := newEditor()
	w := e.World()
	c := hex.New(0, 0)

	e.ToggleLayer() // capital
	e.Paint(c)
	if w.Has(c) {
		t.Fatal("locality brush created a tile")
	}

	w.UpsertTerrain(c, world.Farmland)
	e.Paint(c)
	tile, _ := w.Get(c)
	if !tile.HasLocality(world.Capital) || tile.Locality.Name == "" {
		t.Fatalf("capital not placed: %+v", tile.Locality)
	}
	name := tile.Locality.Name

	e.CycleBrush() // satellite capital
	e.Paint(c)
	tile, _ = w.Get(c)
	if !tile.HasLocality(world.SatelliteCapital) || tile.Locality.Name != name {
		t.Errorf("repaint = %+v, want satellite capital named %q", tile.Locality, name)
	}

	if err := e.Select(LocalityLayer, len(world.LocalityCategories)); err != nil {
		t.Fatal(err)
	}
	e.Paint(c)
	tile, _ = w.Get(c)
	if tile.Locality != nil {
		t.Errorf("erase left %+v", tile.Locality)
	}
	if !w.Has(c) {
		t.Error("locality erase removed the tile")
	}
	if err := w.CheckIndices(); err != nil {
		t.Error(err)
	}
}

func TestBrushSize(t *testing.T) {
	e := newEditor()
	e.SetBrushSize(1)
	e.Paint(hex.Cube{})
	if e.World().Len() != 7 {
		t.Errorf("radius-1 brush painted %d tiles, want 7", e.World().Len())
	}
	e.SetBrushSize(-3)
	if e.BrushSize() != 0 {
		t.Errorf("BrushSize() = %d, want 0", e.BrushSize())
	}

	e.SetBrushSize(1 << 30)
	if e.BrushSize() != MaxBrushSize {
		t.Fatalf("BrushSize() = %d, want %d", e.BrushSize(), MaxBrushSize)
	}
	e.Paint(hex.Cube{})
	if want := 3*MaxBrushSize*(MaxBrushSize+1) + 1; e.World().Len() != want {
		t.Errorf("largest brush painted %d tiles, want %d", e.World().Len(), want)
	}
}

func TestClickResolvesPixel(t *testing.T) {
	e := newEditor()
	for _, want := range []hex.Cube{hex.New(0, 0), hex.New(2, -1), hex.New(-3, 1)} {
		p := e.Layout().CubeToPixel(want)
		p.X += 3
		p.Y -= 2
		if got := e.Click(p); got != want {
			t.Errorf("Click(%v) = %v, want %v", p, got, want)
		}
		if !e.World().Has(want) {
			t.Errorf("Click did not paint %v", want)
		}
	}
}

func TestStrokeLeavesNoGaps(t *testing.T) {
	e := newEditor()
	l := e.Layout()
	a, b := hex.New(-3, 0), hex.New(3, 0)
	line := e.Stroke(l.CubeToPixel(a), l.CubeToPixel(b))
	if len(line) != hex.Distance(a, b)+1 {
		t.Fatalf("stroke covered %d hexes, want %d", len(line), hex.Distance(a, b)+1)
	}
	for i := 1; i < len(line); i++ {
		if hex.Distance(line[i-1], line[i]) != 1 {
			t.Errorf("gap between %v and %v", line[i-1], line[i])
		}
	}
	if e.World().Len() != len(line) {
		t.Errorf("painted %d tiles, want %d", e.World().Len(), len(line))
	}
}

func TestStrokeJumpPaintsEnd(t *testing.T) {
	e := newEditor()
	l := e.Layout()
	far := hex.New(hex.MaxRadius+5, 0)
	line := e.Stroke(l.CubeToPixel(hex.New(0, 0)), l.CubeToPixel(far))
	if len(line) != 1 || line[0] != far {
		t.Errorf("jump stroke = %v, want [%v]", line, far)
	}
	if e.World().Len() != 1 {
		t.Errorf("painted %d tiles, want 1", e.World().Len())
	}
}

func TestSelectRejectsOutOfRange(t *testing.T) {
	e := newEditor()
	if err := e.Select(TerrainLayer, len(world.Terrains)+1); err == nil {
		t.Error("out-of-range brush accepted")
	}
	if err := e.Select(Layer(7), 0); err == nil {
		t.Error("unknown layer accepted")
	}
}

func TestParseBrush(t *testing.T) {
	tests := []struct {
		layer, brush string
		wantLayer    Layer
		wantName     string
		wantErr      bool
	}{
		{"terrain", "water", TerrainLayer, "terrain:water", false},
		{"", "farmland", TerrainLayer, "terrain:farmland", false},
		{"terrain", "erase", TerrainLayer, "terrain:erase", false},
		{"locality", "port_city", LocalityLayer, "locality:port_city", false},
		{"Locality", "erase", LocalityLayer, "locality:erase", false},
		{"terrain", "lava", 0, "", true},
		{"weather", "rain", 0, "", true},
	}
	for _, tt := range tests {
		l, brush, err := ParseBrush(tt.layer, tt.brush)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBrush(%q, %q) accepted", tt.layer, tt.brush)
			}
			continue
		}
		if err != nil || l != tt.wantLayer {
			t.Errorf("ParseBrush(%q, %q) = %v, %v", tt.layer, tt.brush, l, err)
			continue
		}
		e := newEditor()
		if err := e.Select(l, brush); err != nil {
			t.Fatal(err)
		}
		if got := e.BrushName(); got != tt.wantName {
			t.Errorf("BrushName = %q, want %q", got, tt.wantName)
		}
	}
}
