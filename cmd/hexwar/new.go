package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var (
	flagSeed    int64
	flagRadius  int
	flagPlayers int
	flagForce   bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new map",
	Long: `Generate a new map from noise, place capitals, cities, ports and
airports, and write it to the map file.

Flags left at zero fall back to the generate section of the config.

Examples:
  hexwar new                       # Use the configured seed and radius
  hexwar new --seed 7 --radius 8   # A smaller, different map
  hexwar new --force               # Overwrite an existing map file`,
	Run: runNew,
}

func init() {
	newCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Generation seed (0 = config seed)")
	newCmd.Flags().IntVar(&flagRadius, "radius", 0, "Map radius in hexes (0 = config radius)")
	newCmd.Flags().IntVar(&flagPlayers, "players", 0, "Number of players (0 = config players)")
	newCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing map file")
}

func runNew(_ *cobra.Command, _ []string) {
	if flagSeed != 0 {
		cfg.Generate.Seed = flagSeed
	}
	if flagRadius > 0 {
		cfg.Generate.Radius = flagRadius
	}
	if flagPlayers > 0 {
		cfg.Generate.Players = flagPlayers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	gen := cfg.Generate.GenConfig()

	if _, err := os.Stat(cfg.Storage.Map); err == nil && !flagForce {
		fmt.Fprintf(os.Stderr, "Map %s already exists (use --force to overwrite)\n", cfg.Storage.Map)
		os.Exit(1)
	}

	slog.Info("generating map", "seed", gen.Seed, "radius", gen.Radius, "players", gen.Players)
	w := world.Generate(gen)

	if err := persistence.SaveMap(cfg.Storage.Map, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving map: %v\n", err)
		os.Exit(1)
	}

	counts := world.TerrainCounts(w)
	fmt.Printf("Generated %s tiles (%s farmland, %s water) for %d players.\n",
		humanize.Comma(int64(w.Len())),
		humanize.Comma(int64(counts[world.Farmland])),
		humanize.Comma(int64(counts[world.Water])),
		gen.Players,
	)
	fmt.Printf("Map written to %s\n", cfg.Storage.Map)
}
