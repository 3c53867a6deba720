// Package render turns a world into drawing primitives positioned by a
// hex layout. It draws nothing itself; a front end walks the Scene.
package render

import (
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

// Color is 8-bit RGBA.
type Color struct {
	R, G, B, A uint8
}

var (
	Black     = Color{0, 0, 0, 255}
	White     = Color{255, 255, 255, 255}
	LightGray = Color{200, 200, 200, 255}
	SkyBlue   = Color{102, 191, 255, 255}
	Highlight = Color{255, 255, 0, 136}

	Red       = Color{230, 41, 55, 255}
	Pink      = Color{255, 109, 194, 255}
	DarkBrown = Color{76, 63, 47, 255}
	Blue      = Color{0, 121, 241, 255}
	DarkGreen = Color{0, 117, 44, 255}
)

// ownerColors are the translucent player tints, indexed by player.
var ownerColors = []Color{
	{230, 41, 56, 171},
	{0, 120, 242, 171},
	{0, 227, 48, 171},
	{135, 61, 191, 171},
}

// OwnerColor returns the tint for a tile or army owner. Unowned and
// players beyond the table are white.
func OwnerColor(p *world.PlayerIndex) Color {
	if p == nil || int(*p) < 0 || int(*p) >= len(ownerColors) {
		return White
	}
	return ownerColors[*p]
}

// LocalityColor returns the marker colour for a locality category.
func LocalityColor(c world.LocalityCategory) Color {
	switch c {
	case world.Capital:
		return Red
	case world.SatelliteCapital:
		return Pink
	case world.City:
		return DarkBrown
	case world.PortCity:
		return Blue
	default:
		return DarkGreen
	}
}

// Hexagon is a filled hex outline.
type Hexagon struct {
	Coord    hex.Cube
	Center   hex.Point
	Corners  [6]hex.Point
	Size     float64
	Vertical bool    // Pointy-top
	Border   float64 // Outline width, 0 for none
	Fill     Color
	Stroke   Color
}

// MarkerShape is the form of a point marker.
type MarkerShape uint8

const (
	Circle MarkerShape = iota
	Square
	ArmyIcon
)

// Marker is a locality or army symbol centred on a hex.
type Marker struct {
	Coord  hex.Cube
	Shape  MarkerShape
	Center hex.Point
	Size   float64
	Color  Color
}

// Label is text anchored at a pixel.
type Label struct {
	Pos   hex.Point
	Text  string
	Color Color
}

// Scene is everything to draw for one frame, in paint order: base tiles,
// ownership tints, localities, armies, highlights, then labels.
type Scene struct {
	Base       []Hexagon
	Ownership  []Hexagon
	Localities []Marker
	Armies     []Marker
	Highlights []Hexagon
	Labels     []Label
}

// Overlay carries per-frame interaction state.
type Overlay struct {
	Selection *hex.Cube  // Selected army, if any
	Moves     []hex.Cube // Legal moves of the selection
	Movable   []hex.Cube // Armies that can still move, shown when nothing is selected
}

// Frame builds the scene for w under layout l.
func Frame(w *world.World, l hex.Layout, o Overlay) Scene {
	var sc Scene
	size := l.Size.X
	vertical := l.Vertical()

	hexagon := func(c hex.Cube, border float64, fill Color) Hexagon {
		return Hexagon{
			Coord:    c,
			Center:   l.CubeToPixel(c),
			Corners:  l.Corners(c),
			Size:     size,
			Vertical: vertical,
			Border:   border,
			Fill:     fill,
			Stroke:   Black,
		}
	}

	for _, e := range w.Tiles() {
		c, t := e.Coord, e.Tile
		center := l.CubeToPixel(c)

		switch t.Terrain {
		case world.Water:
			sc.Base = append(sc.Base, hexagon(c, 0, SkyBlue))
		default:
			sc.Base = append(sc.Base, hexagon(c, size/20, LightGray))
		}

		if t.Owner != nil {
			sc.Ownership = append(sc.Ownership, hexagon(c, 0, OwnerColor(t.Owner)))
		}

		if t.Locality != nil {
			m := Marker{Coord: c, Shape: Circle, Center: center, Size: size / 2, Color: LocalityColor(t.Locality.Category)}
			if t.Locality.Category == world.Airport {
				m.Shape = Square
				m.Size = size
			}
			sc.Localities = append(sc.Localities, m)
			if t.Locality.Name != "" {
				sc.Labels = append(sc.Labels, Label{
					Pos:   hex.Point{X: center.X, Y: center.Y + size*0.8},
					Text:  t.Locality.Name,
					Color: White,
				})
			}
		}

		if t.Army != nil {
			owner := t.Army.Owner
			sc.Armies = append(sc.Armies, Marker{
				Coord:  c,
				Shape:  ArmyIcon,
				Center: center,
				Size:   size * 1.5,
				Color:  OwnerColor(&owner),
			})
		}
	}

	highlight := o.Movable
	if o.Selection != nil {
		highlight = o.Moves
	}
	for _, c := range highlight {
		sc.Highlights = append(sc.Highlights, hexagon(c, size/10, Highlight))
	}

	return sc
}

// ArmyInfo is the strength readout for an army near the pointer.
type ArmyInfo struct {
	Coord    hex.Cube
	Center   hex.Point
	Owner    world.PlayerIndex
	Manpower uint32
	Morale   uint32
	CanMove  bool
}

// ArmyInfoNear returns every army within two hexes of the hex under pos,
// in coordinate order.
func ArmyInfoNear(w *world.World, l hex.Layout, pos hex.Point) []ArmyInfo {
	var out []ArmyInfo
	for _, c := range l.HexAt(pos).Disc(2) {
		t, ok := w.Get(c)
		if !ok || t.Army == nil {
			continue
		}
		out = append(out, ArmyInfo{
			Coord:    c,
			Center:   l.CubeToPixel(c),
			Owner:    t.Army.Owner,
			Manpower: t.Army.Manpower,
			Morale:   t.Army.Morale,
			CanMove:  t.Army.CanMove,
		})
	}
	return out
}
