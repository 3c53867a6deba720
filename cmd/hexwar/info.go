package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarise a map",
	Long: `Print tile, terrain, player and locality counts for the map file.
If the save database exists its map id, turn and save time are shown too.`,
	Run: runInfo,
}

func runInfo(_ *cobra.Command, _ []string) {
	w := loadMap()

	fmt.Printf("Map: %s", cfg.Storage.Map)
	if st, err := os.Stat(cfg.Storage.Map); err == nil {
		fmt.Printf(" (%s)", humanize.Bytes(uint64(st.Size())))
	}
	fmt.Println()
	fmt.Printf("  Tiles:  %s (radius %d)\n", humanize.Comma(int64(w.Len())), w.Radius())

	counts := world.TerrainCounts(w)
	for _, t := range world.Terrains {
		fmt.Printf("  %-8s %s\n", t.String()+":", humanize.Comma(int64(counts[t])))
	}

	fmt.Println("Players:")
	for _, p := range w.Players() {
		fmt.Printf("  %d: %s tiles, %d armies\n",
			p, humanize.Comma(int64(len(w.OwnedBy(p)))), len(w.Armies(p)))
	}

	fmt.Println("Localities:")
	for _, c := range world.LocalityCategories {
		if n := len(w.WithLocality(c)); n > 0 {
			fmt.Printf("  %-18s %d\n", c.String()+":", n)
		}
	}

	if _, err := os.Stat(cfg.Storage.DB); err != nil {
		return
	}
	db, err := persistence.Open(cfg.Storage.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if !db.HasWorld() {
		return
	}

	fmt.Printf("Save: %s\n", cfg.Storage.DB)
	if id, err := db.GetMeta("map_id"); err == nil {
		fmt.Printf("  Map id: %s\n", id)
	}
	if turn, err := db.GetMeta("turn"); err == nil {
		fmt.Printf("  Turn:   %s\n", turn)
	}
	if at, err := db.GetMeta("saved_at"); err == nil {
		if ts, err := time.Parse(time.RFC3339, at); err == nil {
			fmt.Printf("  Saved:  %s\n", humanize.Time(ts))
		}
	}
}
