// Locality placement: finds suitable land and seeds capitals, cities,
// ports and airports, then hands each player its starting territory.
package world

import (
	"math/rand"
	"slices"
	"strconv"

	"github.com/talgya/hexwar/internal/hex"
)

// LocalitySeed records one placed locality.
type LocalitySeed struct {
	Coord    hex.Cube
	Category LocalityCategory
	Owner    *PlayerIndex
	Name     string
	Score    float64 // Desirability score
}

type scored struct {
	coord   hex.Cube
	score   float64
	coastal bool
}

// PlaceLocalities places localities on farmland, assigns each player a
// capital with the surrounding ring, a satellite capital and an airport,
// and stations a starting army on every capital. Returns the seeds in
// placement order.
func PlaceLocalities(w *World, cfg GenConfig, seed int64) []LocalitySeed {
	rng := rand.New(rand.NewSource(seed + 200))
	snap := w.Snapshot()

	var candidates []scored
	for c, t := range snap {
		if t.Terrain != Farmland {
			continue
		}
		s, coastal := localityScore(snap, c)
		candidates = append(candidates, scored{coord: c, score: s, coastal: coastal})
	}
	// Sort by score descending; coordinates break ties so seeds reproduce.
	slices.SortFunc(candidates, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return hex.Compare(a.coord, b.coord)
		}
	})

	var seeds []LocalitySeed
	taken := make(map[hex.Cube]bool)
	place := func(c scored, cat LocalityCategory, owner *PlayerIndex) {
		taken[c.coord] = true
		seeds = append(seeds, LocalitySeed{Coord: c.coord, Category: cat, Owner: owner, Score: c.score})
	}

	// Capitals: as far apart as the land allows.
	var capitals []hex.Cube
	for minDist := max(cfg.Radius, 2); minDist >= 1 && len(capitals) < cfg.Players; minDist-- {
		for _, c := range candidates {
			if len(capitals) >= cfg.Players {
				break
			}
			if taken[c.coord] || tooClose(c.coord, seeds, minDist) {
				continue
			}
			place(c, Capital, Owner(PlayerIndex(len(capitals))))
			capitals = append(capitals, c.coord)
		}
	}

	for i, capital := range capitals {
		owner := Owner(PlayerIndex(i))

		// Satellite capital: the best spot three to four hexes out.
		for _, c := range candidates {
			d := hex.Distance(c.coord, capital)
			if taken[c.coord] || d < 3 || d > 4 || tooClose(c.coord, seeds, 2) {
				continue
			}
			place(c, SatelliteCapital, owner)
			break
		}

		// Airport: right next to the capital.
		for _, c := range candidates {
			if taken[c.coord] || hex.Distance(c.coord, capital) > 2 {
				continue
			}
			place(c, Airport, owner)
			break
		}
	}

	// Ports: neutral coastal towns.
	for _, c := range candidates {
		if countByCategory(seeds, PortCity) >= cfg.Ports {
			break
		}
		if !c.coastal || taken[c.coord] || tooClose(c.coord, seeds, 3) {
			continue
		}
		place(c, PortCity, nil)
	}

	// Cities: scatter across the remaining good land.
	for _, c := range candidates {
		if countByCategory(seeds, City) >= cfg.Cities {
			break
		}
		if taken[c.coord] || tooClose(c.coord, seeds, 2) {
			continue
		}
		place(c, City, nil)
	}

	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}

	w.Update(func(b *Batch) error {
		for _, s := range seeds {
			b.SetLocality(s.Coord, &Locality{Category: s.Category, Name: s.Name})
			if s.Owner != nil {
				b.SetOwnership(s.Coord, s.Owner)
			}
		}
		for i, capital := range capitals {
			p := PlayerIndex(i)
			for _, c := range capital.Disc(1) {
				t, ok := b.Get(c)
				if !ok || t.Terrain != Farmland || (t.Owner != nil && *t.Owner != p) {
					continue
				}
				b.SetOwnership(c, Owner(p))
			}
			b.PlaceArmy(capital, Army{
				Owner:    p,
				Manpower: cfg.ArmyManpower,
				Morale:   cfg.ArmyMorale,
				CanMove:  true,
			})
		}
		return nil
	})

	return seeds
}

// localityScore evaluates how desirable a farmland tile is for a locality.
// Prefers tiles surrounded by land with some water access.
func localityScore(snap map[hex.Cube]Tile, c hex.Cube) (float64, bool) {
	score := 1.0
	coastal := false
	for _, n := range c.Neighbors() {
		t, ok := snap[n]
		if !ok {
			continue
		}
		switch t.Terrain {
		case Farmland:
			score += 0.3
		case Water:
			coastal = true
		}
	}
	if coastal {
		score += 0.5
	}
	// Land two rings out adds room to grow.
	for _, n := range c.Ring(2) {
		if t, ok := snap[n]; ok && t.Terrain == Farmland {
			score += 0.05
		}
	}
	return score, coastal
}

func tooClose(c hex.Cube, existing []LocalitySeed, minDist int) bool {
	for _, s := range existing {
		if hex.Distance(c, s.Coord) < minDist {
			return true
		}
	}
	return false
}

func countByCategory(seeds []LocalitySeed, cat LocalityCategory) int {
	n := 0
	for _, s := range seeds {
		if s.Category == cat {
			n++
		}
	}
	return n
}

// generateNames produces procedural locality names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	pool := len(prefixes) * len(suffixes)

	for len(names) < count && len(used) < pool {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	// Every combination is taken: reuse them in order with a number.
	for i := len(names); i < count; i++ {
		names = append(names, names[i%pool]+" "+strconv.Itoa(i/pool+1))
	}

	return names
}

// NameFor returns a single procedural name, used when an editor places a
// locality by hand.
func NameFor(rng *rand.Rand) string {
	return generateNames(rng, 1)[0]
}
