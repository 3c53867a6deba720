// Package api provides the HTTP API for inspecting and editing a running
// game. GET endpoints are public (read-only observation). POST endpoints
// require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/game"
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/render"
	"github.com/talgya/hexwar/internal/world"
)

// Server serves the game state over HTTP.
type Server struct {
	Game      *game.Game
	Editor    *editor.Editor
	DB        *persistence.DB // Optional save database
	MapPath   string          // Optional JSON map written by /save
	Port      int
	AdminKey  string // Bearer token for POST endpoints. Empty = POST disabled.
	RateLimit int    // Public requests per minute per client. 0 = unlimited.

	httpServer *http.Server
	limiter    *RateLimiter

	// Brush selection and painting happen as one step per request.
	editMu sync.Mutex

	// Moves already written to the save database.
	saveMu sync.Mutex
	saved  int
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	if s.RateLimit > 0 && s.limiter == nil {
		s.limiter = NewRateLimiter(s.RateLimit, time.Minute)
	}
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(s.limiter, getOnly(h))
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", public(s.handleStatus))
	mux.HandleFunc("/api/v1/map", public(s.handleMap))
	mux.HandleFunc("/api/v1/preview", public(s.handlePreview))
	mux.HandleFunc("/api/v1/tile/", public(s.handleTile))
	mux.HandleFunc("/api/v1/moves", public(s.handleMoves))
	mux.HandleFunc("/api/v1/armies", public(s.handleArmies))
	mux.HandleFunc("/api/v1/history", public(s.handleHistory))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/move", s.adminOnly(s.handleMove))
	mux.HandleFunc("/api/v1/endturn", s.adminOnly(s.handleEndTurn))
	mux.HandleFunc("/api/v1/edit", s.adminOnly(s.handleEdit))
	mux.HandleFunc("/api/v1/save", s.adminOnly(s.handleSave))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "rate_limit", s.RateLimit)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no HEXWAR_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) world() *world.World {
	return s.Game.World()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	wd := s.world()

	owned := make(map[string]int)
	for _, p := range wd.Players() {
		owned[strconv.Itoa(int(p))] = len(wd.OwnedBy(p))
	}
	localities := make(map[string]int)
	for _, c := range world.LocalityCategories {
		if n := len(wd.WithLocality(c)); n > 0 {
			localities[c.String()] = n
		}
	}

	writeJSON(w, map[string]any{
		"name":           "hexwar",
		"turn":           s.Game.Turn(),
		"current_player": s.Game.Current(),
		"players":        s.Game.Players(),
		"tiles":          wd.Len(),
		"radius":         wd.Radius(),
		"owned":          owned,
		"localities":     localities,
		"movable":        len(s.Game.Movable()),
	})
}

type tileEntry struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
	world.Tile
}

func entryFor(c hex.Cube, t world.Tile) tileEntry {
	return tileEntry{Q: c.Q, R: c.R, S: c.S(), Tile: t}
}

// handleMap returns every tile in coordinate order.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	wd := s.world()
	all := wd.Tiles()
	tiles := make([]tileEntry, 0, len(all))
	for _, e := range all {
		tiles = append(tiles, entryFor(e.Coord, e.Tile))
	}
	writeJSON(w, map[string]any{
		"radius": wd.Radius(),
		"tiles":  tiles,
	})
}

// handlePreview returns the terminal rendering as plain text.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var highlight []hex.Cube
	if from := r.URL.Query().Get("from"); from != "" {
		c, err := hex.Parse(from)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		highlight = s.Game.LegalMoves(c)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, render.Terminal(s.world(), highlight))
}

// handleTile returns one tile: GET /api/v1/tile/{q},{r},{s}.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	c, err := hex.Parse(strings.TrimPrefix(r.URL.Path, "/api/v1/tile/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, ok := s.world().Get(c)
	if !ok {
		http.Error(w, "no tile at "+c.String(), http.StatusNotFound)
		return
	}
	writeJSON(w, entryFor(c, t))
}

// handleMoves returns legal moves and attack targets:
// GET /api/v1/moves?from=q,r,s[&player=n]. Player defaults to the current one.
func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	src, err := hex.Parse(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "from: "+err.Error(), http.StatusBadRequest)
		return
	}
	player := s.Game.Current()
	if p := r.URL.Query().Get("player"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			http.Error(w, "invalid player", http.StatusBadRequest)
			return
		}
		player = world.PlayerIndex(n)
	}

	policy := s.Game.Policy()
	moves := s.world().LegalMoves(src, player, policy)
	targets := s.world().AttackTargets(src, player, policy)
	writeJSON(w, map[string]any{
		"from":    src,
		"player":  player,
		"moves":   nonNil(moves),
		"targets": nonNil(targets),
	})
}

// handleArmies lists armies near a pixel: GET /api/v1/armies?x=..&y=..
func (s *Server) handleArmies(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be numbers", http.StatusBadRequest)
		return
	}
	info := render.ArmyInfoNear(s.world(), s.layout(), hex.Point{X: x, Y: y})
	if info == nil {
		info = []render.ArmyInfo{}
	}
	writeJSON(w, info)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, 1000)
		}
	}
	h := s.Game.History()
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	if h == nil {
		h = []game.Move{}
	}
	writeJSON(w, h)
}

func (s *Server) layout() hex.Layout {
	if s.Editor != nil {
		return s.Editor.Layout()
	}
	return hex.PointyLayout(hex.Point{X: 24, Y: 24}, hex.Point{})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From hex.Cube `json:"from"`
		To   hex.Cube `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	m, err := s.Game.MoveArmy(req.From, req.To)
	switch {
	case errors.Is(err, game.ErrNotYourArmy):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, game.ErrIllegalMove):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("move applied via API", "player", m.Player, "from", m.From, "to", m.To)
	writeJSON(w, m)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	next := s.Game.EndTurn()
	writeJSON(w, map[string]any{
		"current_player": next,
		"turn":           s.Game.Turn(),
	})
}

// handleEdit applies one brush stroke. The target is either a coordinate
// ("at") or a pixel ("x","y") resolved through the editor's layout.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if s.Editor == nil {
		http.Error(w, "editor not available", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Layer string   `json:"layer"`
		Brush string   `json:"brush"` // Category name or "erase"
		Size  int      `json:"size,omitempty"`
		At    *string  `json:"at,omitempty"`
		X     *float64 `json:"x,omitempty"`
		Y     *float64 `json:"y,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	layer, brush, err := editor.ParseBrush(req.Layer, req.Brush)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Size < 0 || req.Size > editor.MaxBrushSize {
		http.Error(w, fmt.Sprintf("size must be between 0 and %d", editor.MaxBrushSize), http.StatusBadRequest)
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()
	if err := s.Editor.Select(layer, brush); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Editor.SetBrushSize(req.Size)

	var target hex.Cube
	switch {
	case req.At != nil:
		c, err := hex.Parse(*req.At)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Editor.Paint(c)
		target = c
	case req.X != nil && req.Y != nil:
		target = s.Editor.Click(hex.Point{X: *req.X, Y: *req.Y})
	default:
		http.Error(w, "need at or x,y", http.StatusBadRequest)
		return
	}

	slog.Info("edit applied via API", "brush", s.Editor.BrushName(), "at", target, "size", req.Size)
	t, ok := s.world().Get(target)
	writeJSON(w, map[string]any{
		"at":     target,
		"brush":  s.Editor.BrushName(),
		"exists": ok,
		"tile":   t,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil && s.MapPath == "" {
		http.Error(w, "no save target configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.Save(); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"turn":    s.Game.Turn(),
		"tiles":   s.world().Len(),
		"message": "saved",
	})
}

// Save writes the game to the configured database and map file.
func (s *Server) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.DB != nil {
		history := s.Game.History()
		if err := s.DB.SaveGame(s.Game, history[min(s.saved, len(history)):]); err != nil {
			return err
		}
		s.saved = len(history)
	}
	if s.MapPath != "" {
		if err := persistence.SaveMap(s.MapPath, s.world()); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(cs []hex.Cube) []hex.Cube {
	if cs == nil {
		return []hex.Cube{}
	}
	return cs
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
