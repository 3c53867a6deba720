// World generation using layered simplex noise.
// Generates an elevation field, floods everything below the water level and
// then places capitals, cities, ports and airports on the remaining land.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/hexwar/internal/hex"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Radius     int     // Hex disc radius (12 gives 469 tiles)
	Seed       int64   // Random seed (0 = random)
	WaterLevel float64 // Elevation threshold for water (0.0–1.0)
	Players    int     // Number of starting capitals
	Cities     int     // Neutral inland cities
	Ports      int     // Neutral port cities

	ArmyManpower uint32 // Starting army at each capital
	ArmyMorale   uint32
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:       12,
		Seed:         0,
		WaterLevel:   0.30,
		Players:      2,
		Cities:       6,
		Ports:        3,
		ArmyManpower: 10,
		ArmyMorale:   5,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:       6,
		Seed:         42,
		WaterLevel:   0.25,
		Players:      2,
		Cities:       2,
		Ports:        1,
		ArmyManpower: 10,
		ArmyMorale:   5,
	}
}

// Generate creates a complete world with terrain, localities, starting
// ownership and one army per player.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	w := NewWorld()

	w.Update(func(b *Batch) error {
		for _, c := range (hex.Cube{}).Disc(cfg.Radius) {
			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(c.Q) + float64(c.R)*0.5
			y := float64(c.R) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)

			// Continental shaping: reduce elevation near edges to create a sea border.
			if cfg.Radius > 0 {
				distFromCenter := math.Sqrt(x*x+y*y) / float64(cfg.Radius)
				edgeFalloff := 1.0 - math.Pow(distFromCenter, 3.5)
				if edgeFalloff < 0 {
					edgeFalloff = 0
				}
				elev *= edgeFalloff
			}

			terrain := Farmland
			if elev < cfg.WaterLevel {
				terrain = Water
			}
			b.UpsertTerrain(c, terrain)
		}
		return nil
	})

	PlaceLocalities(w, cfg, seed)
	return w
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain distribution.
func TerrainCounts(w *World) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, e := range w.Tiles() {
		counts[e.Tile.Terrain]++
	}
	return counts
}
