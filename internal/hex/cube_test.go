package hex

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewCubeRejectsBrokenInvariant(t *testing.T) {
	if _, err := NewCube(1, 1, 1); !errors.Is(err, ErrInvalidCube) {
		t.Fatalf("NewCube(1,1,1) error = %v, want ErrInvalidCube", err)
	}
	c, err := NewCube(2, -3, 1)
	if err != nil {
		t.Fatalf("NewCube(2,-3,1) failed: %v", err)
	}
	if c.Q+c.R+c.S() != 0 {
		t.Errorf("invariant broken: %v", c)
	}
}

func TestArithmeticKeepsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := New(rng.Intn(41)-20, rng.Intn(41)-20)
		b := New(rng.Intn(41)-20, rng.Intn(41)-20)
		k := rng.Intn(9) - 4
		for _, c := range []Cube{a.Add(b), a.Sub(b), a.Scale(k)} {
			if c.Q+c.R+c.S() != 0 {
				t.Fatalf("invariant broken for %v", c)
			}
		}
	}
}

func TestNeighborsOrderAndDistance(t *testing.T) {
	origin := New(3, -1)
	nbs := origin.Neighbors()
	for i, n := range nbs {
		if n != origin.Add(Directions[i]) {
			t.Errorf("neighbor %d = %v, want %v", i, n, origin.Add(Directions[i]))
		}
		if d := Distance(origin, n); d != 1 {
			t.Errorf("distance to neighbor %d = %d, want 1", i, d)
		}
	}
	if origin.Neighbor(-1) != nbs[5] || origin.Neighbor(6) != nbs[0] {
		t.Error("Neighbor index should wrap mod 6")
	}
}

func TestDistanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rnd := func() Cube { return New(rng.Intn(61)-30, rng.Intn(61)-30) }

	for i := 0; i < 500; i++ {
		a, b, c := rnd(), rnd(), rnd()
		if Distance(a, b) != Distance(b, a) {
			t.Fatalf("distance not symmetric for %v %v", a, b)
		}
		if Distance(a, a) != 0 {
			t.Fatalf("distance(a,a) != 0 for %v", a)
		}
		if Distance(a, c) > Distance(a, b)+Distance(b, c) {
			t.Fatalf("triangle inequality fails for %v %v %v", a, b, c)
		}
		d := a.Sub(b)
		if half := (abs(d.Q) + abs(d.R) + abs(d.S())) / 2; half != Distance(a, b) {
			t.Fatalf("max form %d != half-sum form %d", Distance(a, b), half)
		}
	}
}

func TestDiscCardinality(t *testing.T) {
	center := New(-2, 5)
	for n := 0; n <= 5; n++ {
		disc := center.Disc(n)
		want := 3*n*(n+1) + 1
		if len(disc) != want {
			t.Errorf("|Disc(%d)| = %d, want %d", n, len(disc), want)
		}
		seen := make(map[Cube]bool)
		for _, c := range disc {
			if seen[c] {
				t.Errorf("Disc(%d) repeats %v", n, c)
			}
			seen[c] = true
			if Distance(center, c) > n {
				t.Errorf("Disc(%d) contains %v at distance %d", n, c, Distance(center, c))
			}
		}
		if !seen[center] {
			t.Errorf("Disc(%d) misses its center", n)
		}
	}
	if center.Disc(-1) != nil {
		t.Error("Disc(-1) should be empty")
	}
}

func TestRadiusBound(t *testing.T) {
	c := New(0, 0)
	if got := len(c.Disc(MaxRadius)); got != 3*MaxRadius*(MaxRadius+1)+1 {
		t.Errorf("|Disc(MaxRadius)| = %d", got)
	}
	if got := len(c.Ring(MaxRadius)); got != 6*MaxRadius {
		t.Errorf("|Ring(MaxRadius)| = %d", got)
	}
	for _, n := range []int{MaxRadius + 1, 1 << 30} {
		if c.Disc(n) != nil {
			t.Errorf("Disc(%d) should be empty", n)
		}
		if c.Ring(n) != nil {
			t.Errorf("Ring(%d) should be empty", n)
		}
	}
}

func TestRing(t *testing.T) {
	center := New(1, 1)
	if r := center.Ring(0); len(r) != 1 || r[0] != center {
		t.Fatalf("Ring(0) = %v, want [center]", r)
	}
	for n := 1; n <= 4; n++ {
		ring := center.Ring(n)
		if len(ring) != 6*n {
			t.Errorf("|Ring(%d)| = %d, want %d", n, len(ring), 6*n)
		}
		seen := make(map[Cube]bool)
		for _, c := range ring {
			if Distance(center, c) != n {
				t.Errorf("Ring(%d) contains %v at distance %d", n, c, Distance(center, c))
			}
			if seen[c] {
				t.Errorf("Ring(%d) repeats %v", n, c)
			}
			seen[c] = true
		}
	}
}

func TestRoundTies(t *testing.T) {
	// Halves round away from zero, then the component with the largest
	// error is recomputed: q before r before s when errors are equal.
	tests := []struct {
		in   FracCube
		want Cube
	}{
		{FracCube{Q: 0.5, R: -0.5}, New(1, -1)},  // q and r tie: q recomputed
		{FracCube{Q: -0.5, R: 0.5}, New(-1, 1)},  // q and r tie: q recomputed
		{FracCube{Q: 0.5, R: 0}, New(1, 0)},      // q and s tie: q recomputed
		{FracCube{Q: 1.5, R: -0.5}, New(2, -1)},  // q and r tie
		{FracCube{Q: -1.5, R: 2.5}, New(-2, 3)},  // q and r tie
		{FracCube{Q: 0.5, R: 0.5}, New(0, 1)},    // q and r tie, s exact
		{FracCube{Q: 0, R: 0.5}, New(0, 1)},      // r and s tie: r recomputed
		{FracCube{Q: 0, R: -0.5}, New(0, -1)},    // r and s tie: r recomputed
		{FracCube{Q: -0.5, R: -0.5}, New(0, -1)}, // q and r tie, s exact
	}
	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			if got := tt.in.Round(); got != tt.want {
				t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestRoundNearest(t *testing.T) {
	tests := []struct {
		in   FracCube
		want Cube
	}{
		{FracCube{Q: 0.1, R: -0.1}, New(0, 0)},
		{FracCube{Q: 0.9, R: -0.2}, New(1, 0)},
		{FracCube{Q: 2.2, R: -1.1}, New(2, -1)},
		{FracCube{Q: -3.05, R: 1.9}, New(-3, 2)},
	}
	for _, tt := range tests {
		if got := tt.in.Round(); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	a, b := New(0, 0), New(4, -2)
	line := Line(a, b)
	if len(line) != Distance(a, b)+1 {
		t.Fatalf("len(Line) = %d, want %d", len(line), Distance(a, b)+1)
	}
	if line[0] != a || line[len(line)-1] != b {
		t.Errorf("Line endpoints = %v..%v", line[0], line[len(line)-1])
	}
	for i := 1; i < len(line); i++ {
		if Distance(line[i-1], line[i]) != 1 {
			t.Errorf("Line step %d not adjacent: %v -> %v", i, line[i-1], line[i])
		}
	}
}

func TestParseAndText(t *testing.T) {
	c := New(3, -5)
	text, err := c.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "3,-5,2" {
		t.Errorf("MarshalText = %q", text)
	}
	var back Cube
	if err := back.UnmarshalText(text); err != nil || back != c {
		t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
	}
	if _, err := Parse("1,1,1"); !errors.Is(err, ErrInvalidCube) {
		t.Errorf("Parse(1,1,1) error = %v", err)
	}
	if got, err := Parse("(2, -1)"); err != nil || got != New(2, -1) {
		t.Errorf("Parse axial = %v, %v", got, err)
	}
	if _, err := Parse("x,y,z"); err == nil {
		t.Error("Parse should reject non-numbers")
	}
}
