package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the saved game's map to a JSON file",
	Long: `Write the world held in the save database to the map file.

Examples:
  hexwar export
  hexwar export --map snapshots/turn12.json`,
	Run: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSON map into the save database",
	Long: `Replace the world in the save database with the map file. Turn
state and move history are left as they are.`,
	Run: runImport,
}

func runExport(_ *cobra.Command, _ []string) {
	db := openDB()
	defer db.Close()
	if !db.HasWorld() {
		fmt.Fprintf(os.Stderr, "No saved world in %s\n", cfg.Storage.DB)
		os.Exit(1)
	}

	tiles, err := db.LoadTiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	w, err := world.FromTiles(tiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := persistence.SaveMap(cfg.Storage.Map, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving map: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %s tiles to %s\n", humanize.Comma(int64(w.Len())), cfg.Storage.Map)
}

func runImport(_ *cobra.Command, _ []string) {
	w := loadMap()
	db := openDB()
	defer db.Close()

	if err := db.SaveTiles(w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	id, err := db.MapID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %s tiles into %s (map %s)\n", humanize.Comma(int64(w.Len())), cfg.Storage.DB, id)
}

func openDB() *persistence.DB {
	db, err := persistence.Open(cfg.Storage.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return db
}
