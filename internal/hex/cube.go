// Package hex provides cube coordinates for the hex grid and the
// hex↔pixel layout transform.
//
// A Cube stores only the two free axes (q, r); the third axis is derived as
// s = -q - r, so the cube invariant q+r+s == 0 cannot be broken by
// construction.
package hex

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCube is returned when three components do not sum to zero.
var ErrInvalidCube = errors.New("hex: q+r+s must be 0")

// Cube is an integer hex coordinate. The zero value is the origin.
type Cube struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// New returns the cube coordinate (q, r, -q-r).
func New(q, r int) Cube {
	return Cube{Q: q, R: r}
}

// NewCube validates three explicit components.
func NewCube(q, r, s int) (Cube, error) {
	if q+r+s != 0 {
		return Cube{}, fmt.Errorf("%w: (%d,%d,%d)", ErrInvalidCube, q, r, s)
	}
	return Cube{Q: q, R: r}, nil
}

// S returns the implicit third cube coordinate.
func (c Cube) S() int {
	return -c.Q - c.R
}

func (c Cube) Add(o Cube) Cube {
	return Cube{Q: c.Q + o.Q, R: c.R + o.R}
}

func (c Cube) Sub(o Cube) Cube {
	return Cube{Q: c.Q - o.Q, R: c.R - o.R}
}

func (c Cube) Scale(k int) Cube {
	return Cube{Q: c.Q * k, R: c.R * k}
}

// Frac converts to the fractional domain. The conversion is exact.
func (c Cube) Frac() FracCube {
	return FracCube{Q: float64(c.Q), R: float64(c.R)}
}

// Less orders coordinates by q, then r. Used to make enumerations stable.
func (c Cube) Less(o Cube) bool {
	if c.Q != o.Q {
		return c.Q < o.Q
	}
	return c.R < o.R
}

// Compare is Less in the three-way form expected by slices.SortFunc.
func Compare(a, b Cube) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

func (c Cube) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.Q, c.R, c.S())
}

// MarshalText encodes the coordinate as "q,r,s" so it can key a JSON object.
func (c Cube) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(c.Q) + "," + strconv.Itoa(c.R) + "," + strconv.Itoa(c.S())), nil
}

// UnmarshalText accepts "q,r,s" and rejects triples that break the invariant.
func (c *Cube) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse reads "q,r,s" (three components) or "q,r" (axial).
func Parse(s string) (Cube, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 && len(parts) != 3 {
		return Cube{}, fmt.Errorf("hex: parse %q: want q,r,s", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Cube{}, fmt.Errorf("hex: parse %q: %w", s, err)
		}
		vals[i] = v
	}
	if len(vals) == 2 {
		return New(vals[0], vals[1]), nil
	}
	return NewCube(vals[0], vals[1], vals[2])
}

// Directions are the six unit offsets in axial terms:
// (+1,0) (+1,-1) (0,-1) (-1,0) (-1,+1) (0,+1).
// Adjacency does not depend on layout orientation.
var Directions = [6]Cube{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbor returns the adjacent coordinate in direction i (mod 6).
func (c Cube) Neighbor(i int) Cube {
	return c.Add(Directions[((i%6)+6)%6])
}

// Neighbors returns the six adjacent hex coordinates in Directions order.
func (c Cube) Neighbors() [6]Cube {
	var result [6]Cube
	for i, dir := range Directions {
		result[i] = c.Add(dir)
	}
	return result
}

// Distance returns the hex distance between two coordinates:
// max(|Δq|, |Δr|, |Δs|), which equals (|Δq|+|Δr|+|Δs|)/2.
func Distance(a, b Cube) int {
	d := a.Sub(b)
	return max(abs(d.Q), abs(d.R), abs(d.S()))
}

// Length is the distance from the origin.
func (c Cube) Length() int {
	return Distance(c, Cube{})
}

// MaxRadius bounds Disc and Ring; larger radii yield nil.
const MaxRadius = 1 << 10

// Disc returns every coordinate within distance n of c, c included.
// It holds exactly 3n(n+1)+1 coordinates; n outside [0, MaxRadius] yields nil.
func (c Cube) Disc(n int) []Cube {
	if n < 0 || n > MaxRadius {
		return nil
	}
	out := make([]Cube, 0, 3*n*(n+1)+1)
	for q := -n; q <= n; q++ {
		for r := max(-n, -q-n); r <= min(n, -q+n); r++ {
			out = append(out, c.Add(Cube{Q: q, R: r}))
		}
	}
	return out
}

// Ring returns the coordinates at exactly distance n from c: 6n of them,
// or just c when n is 0. n outside [0, MaxRadius] yields nil.
func (c Cube) Ring(n int) []Cube {
	switch {
	case n < 0 || n > MaxRadius:
		return nil
	case n == 0:
		return []Cube{c}
	}
	out := make([]Cube, 0, 6*n)
	cur := c.Add(Directions[4].Scale(n))
	for i := 0; i < 6; i++ {
		for j := 0; j < n; j++ {
			out = append(out, cur)
			cur = cur.Neighbor(i)
		}
	}
	return out
}

// Line returns the coordinates on the straight line from a to b inclusive.
func Line(a, b Cube) []Cube {
	n := Distance(a, b)
	if n == 0 {
		return []Cube{a}
	}
	// Nudge off the edges so ties between two hexes round consistently.
	nudge := FracCube{Q: 1e-6, R: 1e-6}
	af := a.Frac().Add(nudge)
	bf := b.Frac().Add(nudge)
	out := make([]Cube, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Lerp(af, bf, float64(i)/float64(n)).Round())
	}
	return out
}

// FracCube is a fractional cube coordinate, produced by pixel lookups and
// interpolation. Like Cube it stores two axes and derives S.
type FracCube struct {
	Q float64 `json:"q"`
	R float64 `json:"r"`
}

func (f FracCube) S() float64 {
	return -f.Q - f.R
}

func (f FracCube) Add(o FracCube) FracCube {
	return FracCube{Q: f.Q + o.Q, R: f.R + o.R}
}

func (f FracCube) Sub(o FracCube) FracCube {
	return FracCube{Q: f.Q - o.Q, R: f.R - o.R}
}

func (f FracCube) Scale(k float64) FracCube {
	return FracCube{Q: f.Q * k, R: f.R * k}
}

// Lerp interpolates between a and b at t in [0,1].
func Lerp(a, b FracCube, t float64) FracCube {
	return FracCube{Q: a.Q + (b.Q-a.Q)*t, R: a.R + (b.R-a.R)*t}
}

// Round snaps to the nearest integer coordinate. Each axis is rounded on its
// own, then the axis with the largest rounding error is recomputed from the
// other two. Ties in error resolve q first, then r, then s.
func (f FracCube) Round() Cube {
	q, r, s := f.Q, f.R, f.S()
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)

	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)

	switch {
	case dq >= dr && dq >= ds:
		rq = -rr - rs
	case dr >= ds:
		rr = -rq - rs
	}
	return Cube{Q: int(rq), R: int(rr)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
