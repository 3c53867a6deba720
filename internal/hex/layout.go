package hex

import (
	"fmt"
	"math"
	"strings"
)

// Orientation selects flat-top or pointy-top hexagons.
type Orientation uint8

const (
	Flat   Orientation = iota // Edges on top and bottom
	Pointy                    // Vertices on top and bottom
)

func (o Orientation) String() string {
	switch o {
	case Flat:
		return "flat"
	case Pointy:
		return "pointy"
	default:
		return "unknown"
	}
}

// ParseOrientation accepts "flat" or "pointy" (case-insensitive).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "":
		return Flat, nil
	case "pointy":
		return Pointy, nil
	default:
		return Flat, fmt.Errorf("hex: unknown orientation %q", s)
	}
}

// basis holds the forward matrix (f), its inverse (b) and the angle of the
// first corner in sixths of a turn. The pointy matrices are the flat ones
// with the two free axes swapped.
type basis struct {
	f0, f1, f2, f3 float64
	b0, b1, b2, b3 float64
	startAngle     float64
}

var sqrt3 = math.Sqrt(3)

var bases = [2]basis{
	Flat: {
		f0: 3.0 / 2.0, f1: 0, f2: sqrt3 / 2.0, f3: sqrt3,
		b0: 2.0 / 3.0, b1: 0, b2: -1.0 / 3.0, b3: sqrt3 / 3.0,
		startAngle: 0,
	},
	Pointy: {
		f0: sqrt3, f1: sqrt3 / 2.0, f2: 0, f3: 3.0 / 2.0,
		b0: sqrt3 / 3.0, b1: -1.0 / 3.0, b2: 0, b3: 2.0 / 3.0,
		startAngle: 0.5,
	},
}

// Point is a 2-D position in pixel or world space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Layout maps cube coordinates to 2-D space. It is a plain value: replace it
// wholesale to zoom or pan, never mutate it while a query is in flight.
type Layout struct {
	Orientation Orientation `json:"orientation"`
	Size        Point       `json:"size"`   // Hex radius per axis
	Origin      Point       `json:"origin"` // Pixel position of (0,0,0)
}

// FlatLayout returns a flat-top layout.
func FlatLayout(size, origin Point) Layout {
	return Layout{Orientation: Flat, Size: size, Origin: origin}
}

// PointyLayout returns a pointy-top layout.
func PointyLayout(size, origin Point) Layout {
	return Layout{Orientation: Pointy, Size: size, Origin: origin}
}

func (l Layout) basis() basis {
	if l.Orientation == Pointy {
		return bases[Pointy]
	}
	return bases[Flat]
}

// Vertical reports whether hexagons have a vertex on top, which is what a
// renderer rotating a flat hexagon primitive by 30° needs to know.
func (l Layout) Vertical() bool {
	return l.Orientation == Pointy
}

// ToPixel maps a fractional cube coordinate to its center in 2-D space.
func (l Layout) ToPixel(c FracCube) Point {
	m := l.basis()
	x := (m.f0*c.Q + m.f1*c.R) * l.Size.X
	y := (m.f2*c.Q + m.f3*c.R) * l.Size.Y
	return Point{X: x + l.Origin.X, Y: y + l.Origin.Y}
}

// CubeToPixel is ToPixel for an integer coordinate.
func (l Layout) CubeToPixel(c Cube) Point {
	return l.ToPixel(c.Frac())
}

// PixelToCube is the inverse of ToPixel. The result is fractional; call
// Round to resolve the hex under the point.
func (l Layout) PixelToCube(p Point) FracCube {
	m := l.basis()
	x := (p.X - l.Origin.X) / l.Size.X
	y := (p.Y - l.Origin.Y) / l.Size.Y
	return FracCube{
		Q: m.b0*x + m.b1*y,
		R: m.b2*x + m.b3*y,
	}
}

// HexAt resolves the hex under a pixel position.
func (l Layout) HexAt(p Point) Cube {
	return l.PixelToCube(p).Round()
}

// Corners returns the six vertices of the hexagon at c.
func (l Layout) Corners(c Cube) [6]Point {
	center := l.CubeToPixel(c)
	start := l.basis().startAngle
	var out [6]Point
	for i := range out {
		angle := 2 * math.Pi * (start + float64(i)) / 6
		out[i] = Point{
			X: center.X + l.Size.X*math.Cos(angle),
			Y: center.Y + l.Size.Y*math.Sin(angle),
		}
	}
	return out
}
