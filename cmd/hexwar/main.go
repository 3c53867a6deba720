// hexwar is a hex-grid wargame toolkit: map generation, editing, move
// queries and an HTTP API over a running game.
//
// Usage:
//
//	hexwar new               - Generate a new map
//	hexwar info              - Summarise a map
//	hexwar render            - Print a terminal preview of a map
//	hexwar moves <q,r,s>     - List legal moves for an army
//	hexwar edit <q,r,s>...   - Paint terrain or localities
//	hexwar serve             - Serve the HTTP API
//	hexwar export / import   - Copy between the save database and a map file
//
// Global flags:
//
//	--config <path> - YAML config (default: ./configs/hexwar.yaml, then built-in)
//	--map <path>    - JSON map file (overrides config and HEXWAR_MAP)
//	--db <path>     - Save database (overrides config and HEXWAR_DB)
//	--verbose       - Debug logging
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/config"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var (
	// Global flags
	flagConfig  string
	flagMap     string
	flagDBPath  string
	flagVerbose bool

	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hexwar",
	Short: "hexwar - hex-grid wargame maps, moves and API",
	Long: `hexwar generates, edits and inspects hex-grid wargame maps and serves
a running game over HTTP.

Available commands:
  new      - Generate a new map
  info     - Summarise a map
  render   - Print a terminal preview
  moves    - List legal moves for an army
  edit     - Paint terrain or localities
  serve    - Serve the HTTP API
  export   - Write the saved game's map to a JSON file
  import   - Load a JSON map into the save database

Examples:
  hexwar new --seed 7 --radius 10
  hexwar render
  hexwar moves 0,0,0 --player 1
  hexwar edit --layer terrain --brush water 2,-1,-1 3,-1,-2
  hexwar serve --port 8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if flagMap != "" {
			cfg.Storage.Map = flagMap
		}
		if flagDBPath != "" {
			cfg.Storage.DB = flagDBPath
		}
		return nil
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config")
	rootCmd.PersistentFlags().StringVar(&flagMap, "map", "", "Path to JSON map file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to save database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	// Add subcommands
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(movesCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// loadMap reads the configured map file, exiting on failure.
func loadMap() *world.World {
	w, err := persistence.LoadMap(cfg.Storage.Map)
	if err != nil {
		slog.Error("failed to load map", "path", cfg.Storage.Map, "error", err)
		os.Exit(1)
	}
	return w
}

func movePolicy() world.MovePolicy {
	return world.DefaultPolicy(cfg.Moves.Rules())
}
