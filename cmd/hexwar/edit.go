package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var (
	flagLayer string
	flagBrush string
	flagSize  int
	flagLine  bool
)

var editCmd = &cobra.Command{
	Use:   "edit <q,r,s>...",
	Short: "Paint terrain or localities",
	Long: `Paint one or more hexes of the map file and write it back.

Layers and brushes:
  terrain:  farmland, water, erase
  locality: capital, satellite_capital, city, port_city, airport, erase

With --line, consecutive coordinates are joined by hex lines so a stroke
has no gaps.

Examples:
  hexwar edit --layer terrain --brush water 2,-1,-1 3,-1,-2
  hexwar edit --layer locality --brush city 0,0,0
  hexwar edit --brush erase --size 1 4,-2`,
	Args: cobra.MinimumNArgs(1),
	Run:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&flagLayer, "layer", "terrain", "Layer to paint (terrain, locality)")
	editCmd.Flags().StringVar(&flagBrush, "brush", "farmland", "Brush to paint with, or erase")
	editCmd.Flags().IntVar(&flagSize, "size", 0, "Brush radius in hexes")
	editCmd.Flags().BoolVar(&flagLine, "line", false, "Join coordinates with hex lines")
}

func runEdit(_ *cobra.Command, args []string) {
	layer, brush, err := editor.ParseBrush(flagLayer, flagBrush)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagSize < 0 || flagSize > editor.MaxBrushSize {
		fmt.Fprintf(os.Stderr, "Error: --size must be between 0 and %d\n", editor.MaxBrushSize)
		os.Exit(1)
	}

	var targets []hex.Cube
	for _, a := range args {
		c, err := hex.Parse(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid coordinate %q: %v\n", a, err)
			os.Exit(1)
		}
		if flagLine && len(targets) > 0 {
			line := hex.Line(targets[len(targets)-1], c)
			targets = append(targets, line[1:]...)
			continue
		}
		targets = append(targets, c)
	}

	// A missing map file starts an empty canvas.
	w := world.NewWorld()
	if _, err := os.Stat(cfg.Storage.Map); err == nil {
		w = loadMap()
	}
	layout, err := cfg.Layout.HexLayout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ed := editor.New(w, layout, cfg.Generate.Seed)
	if err := ed.Select(layer, brush); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ed.SetBrushSize(flagSize)
	for _, c := range targets {
		ed.Paint(c)
	}

	if err := persistence.SaveMap(cfg.Storage.Map, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving map: %v\n", err)
		os.Exit(1)
	}
	slog.Debug("painted", "brush", ed.BrushName(), "hexes", len(targets), "size", flagSize)
	fmt.Printf("Painted %d hexes with %s; map has %d tiles.\n", len(targets), ed.BrushName(), w.Len())
}
