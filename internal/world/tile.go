// Package world provides the tile store for the hex map: terrain,
// localities, ownership and armies, plus the legal-move search and map
// generation that operate on it.
package world

import (
	"fmt"
	"strings"
)

// PlayerIndex identifies a controlling player (0-based).
type PlayerIndex int

// Owner returns a pointer suitable for Tile.Owner.
func Owner(p PlayerIndex) *PlayerIndex {
	return &p
}

// Terrain is the base category of a tile.
type Terrain uint8

const (
	Farmland Terrain = iota // Open land, armies may stand here
	Water                   // Sea and lakes, no armies
)

// Terrains is the ordered list used by editors and generators.
var Terrains = []Terrain{Farmland, Water}

// AllowsArmy reports whether an army may occupy this terrain.
func (t Terrain) AllowsArmy() bool {
	return t == Farmland
}

func (t Terrain) String() string {
	switch t {
	case Farmland:
		return "farmland"
	case Water:
		return "water"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

func (t Terrain) MarshalText() ([]byte, error) {
	if int(t) >= len(Terrains) {
		return nil, fmt.Errorf("world: unknown terrain %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Terrain) UnmarshalText(text []byte) error {
	parsed, err := ParseTerrain(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain reads a terrain name as written by String.
func ParseTerrain(s string) (Terrain, error) {
	for _, t := range Terrains {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("world: unknown terrain %q", s)
}

// LocalityCategory is the kind of settlement or feature on a tile.
type LocalityCategory uint8

const (
	Capital LocalityCategory = iota
	SatelliteCapital
	City
	PortCity
	Airport
)

// LocalityCategories is the ordered list used by editors and generators.
var LocalityCategories = []LocalityCategory{Capital, SatelliteCapital, City, PortCity, Airport}

func (c LocalityCategory) String() string {
	switch c {
	case Capital:
		return "capital"
	case SatelliteCapital:
		return "satellite_capital"
	case City:
		return "city"
	case PortCity:
		return "port_city"
	case Airport:
		return "airport"
	default:
		return fmt.Sprintf("locality(%d)", uint8(c))
	}
}

func (c LocalityCategory) MarshalText() ([]byte, error) {
	if int(c) >= len(LocalityCategories) {
		return nil, fmt.Errorf("world: unknown locality %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *LocalityCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseLocality(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseLocality reads a locality category name as written by String.
func ParseLocality(s string) (LocalityCategory, error) {
	for _, c := range LocalityCategories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("world: unknown locality %q", s)
}

// Locality is a named settlement or feature occupying a tile.
type Locality struct {
	Category LocalityCategory `json:"category"`
	Name     string           `json:"name,omitempty"`
}

// Army is a unit standing on a tile.
type Army struct {
	Owner    PlayerIndex `json:"owner"`
	Manpower uint32      `json:"manpower"`
	Morale   uint32      `json:"morale"`
	CanMove  bool        `json:"can_move"`
}

// Tile is the state of a single hex. A coordinate with no Tile is
// unexplored, which is distinct from a Tile with no locality or army.
type Tile struct {
	Terrain  Terrain      `json:"terrain"`
	Locality *Locality    `json:"locality,omitempty"`
	Owner    *PlayerIndex `json:"owner,omitempty"`
	Army     *Army        `json:"army,omitempty"`
}

// Clone returns a deep copy so callers never alias store internals.
func (t Tile) Clone() Tile {
	out := Tile{Terrain: t.Terrain}
	if t.Locality != nil {
		l := *t.Locality
		out.Locality = &l
	}
	if t.Owner != nil {
		o := *t.Owner
		out.Owner = &o
	}
	if t.Army != nil {
		a := *t.Army
		out.Army = &a
	}
	return out
}

// Equal compares tiles by value.
func (t Tile) Equal(o Tile) bool {
	if t.Terrain != o.Terrain {
		return false
	}
	if (t.Locality == nil) != (o.Locality == nil) || (t.Locality != nil && *t.Locality != *o.Locality) {
		return false
	}
	if (t.Owner == nil) != (o.Owner == nil) || (t.Owner != nil && *t.Owner != *o.Owner) {
		return false
	}
	if (t.Army == nil) != (o.Army == nil) || (t.Army != nil && *t.Army != *o.Army) {
		return false
	}
	return true
}

// OwnedBy reports whether the tile is owned by player p.
func (t Tile) OwnedBy(p PlayerIndex) bool {
	return t.Owner != nil && *t.Owner == p
}

// HasLocality reports whether the tile carries a locality of category c.
func (t Tile) HasLocality(c LocalityCategory) bool {
	return t.Locality != nil && t.Locality.Category == c
}

// Validate checks the per-tile invariants.
func (t Tile) Validate() error {
	if int(t.Terrain) >= len(Terrains) {
		return fmt.Errorf("unknown terrain %d", uint8(t.Terrain))
	}
	if t.Locality != nil && int(t.Locality.Category) >= len(LocalityCategories) {
		return fmt.Errorf("unknown locality %d", uint8(t.Locality.Category))
	}
	if t.Army != nil && !t.Terrain.AllowsArmy() {
		return fmt.Errorf("army on %s", t.Terrain)
	}
	return nil
}
