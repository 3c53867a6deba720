package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/api"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/game"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve a game over HTTP.

The game is resumed from the save database when it holds a world,
otherwise it starts from the map file, and if that is missing too a new
map is generated. The game is saved again on shutdown.

POST endpoints need HEXWAR_ADMIN_KEY (or server.admin_key) and are
disabled without it.

Examples:
  hexwar serve
  hexwar serve --port 9090`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Port to listen on (0 = config port)")
}

func runServe(_ *cobra.Command, _ []string) {
	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.Storage.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DB)

	// ── Game ──────────────────────────────────────────────────────────
	g, err := openGame(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}
	w := g.World()
	slog.Info("game ready", "tiles", w.Len(), "players", g.Players(), "turn", g.Turn(), "current", g.Current())

	layout, err := cfg.Layout.HexLayout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	port := cfg.Server.Port
	if flagPort > 0 {
		port = flagPort
	}
	if cfg.Server.AdminKey == "" {
		slog.Warn("HEXWAR_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	srv := &api.Server{
		Game:      g,
		Editor:    editor.New(w, layout, cfg.Generate.Seed),
		DB:        db,
		MapPath:   cfg.Storage.Map,
		Port:      port,
		AdminKey:  cfg.Server.AdminKey,
		RateLimit: cfg.Server.RateLimit,
	}
	srv.Start()

	fmt.Printf("\nServing %d tiles for %d players, turn %d.\n", w.Len(), g.Players(), g.Turn())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)
	fmt.Println("Press Ctrl+C to stop.")

	// ── Wait ──────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := srv.Save(); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Server stopped. Game saved.")
}

// openGame resumes the saved game, or starts one from the map file or a
// freshly generated map.
func openGame(db *persistence.DB) (*game.Game, error) {
	policy := movePolicy()
	if db.HasWorld() {
		slog.Info("found saved game, loading...")
		return db.LoadGame(policy)
	}

	var w *world.World
	if _, err := os.Stat(cfg.Storage.Map); err == nil {
		slog.Info("no saved game, starting from map file", "path", cfg.Storage.Map)
		w, err = persistence.LoadMap(cfg.Storage.Map)
		if err != nil {
			return nil, err
		}
	} else {
		gen := cfg.Generate.GenConfig()
		slog.Info("no saved game or map, generating...", "seed", gen.Seed, "radius", gen.Radius)
		w = world.Generate(gen)
	}
	return game.New(w, cfg.Generate.Players, policy), nil
}
