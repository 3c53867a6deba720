package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/game"
	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

const testKey = "test-admin-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	w := world.NewWorld()
	for _, c := range (hex.Cube{}).Disc(3) {
		w.UpsertTerrain(c, world.Farmland)
	}
	w.UpsertTerrain(hex.New(3, -3), world.Water)
	w.SetOwnership(hex.New(0, 0), world.Owner(0))
	w.SetLocality(hex.New(0, 0), &world.Locality{Category: world.Capital, Name: "Oakford"})
	w.PlaceArmy(hex.New(0, 0), world.Army{Owner: 0, Manpower: 10, Morale: 0, CanMove: true})
	w.PlaceArmy(hex.New(2, 0), world.Army{Owner: 1, Manpower: 10, CanMove: true})

	g := game.New(w, 2, world.DefaultPolicy(world.DefaultMoveRules()))
	layout := hex.PointyLayout(hex.Point{X: 20, Y: 20}, hex.Point{X: 200, Y: 200})
	return &Server{
		Game:     g,
		Editor:   editor.New(w, layout, 1),
		AdminKey: testKey,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["tiles"] != float64(37) || got["players"] != float64(2) || got["movable"] != float64(1) {
		t.Errorf("status = %v", got)
	}
}

func TestTileEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/tile/0,0,0", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", rec.Code, rec.Body)
	}
	got := decode[tileEntry](t, rec)
	if got.Q != 0 || got.Army == nil || got.Locality == nil || got.Locality.Name != "Oakford" {
		t.Errorf("tile = %+v", got)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/tile/1,1,1", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("off-plane coordinate: code %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/tile/9,0,-9", "", false); rec.Code != http.StatusNotFound {
		t.Errorf("missing tile: code %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/tile/0,0,0", "", true); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST on read endpoint: code %d", rec.Code)
	}
}

func TestMovesEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/moves?from=0,0,0", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", rec.Code, rec.Body)
	}
	got := decode[struct {
		Moves   []hex.Cube `json:"moves"`
		Targets []hex.Cube `json:"targets"`
	}](t, rec)
	// Morale 0 gives a budget of 1 and every neighbour is foreign (cost 2).
	if len(got.Moves) != 0 || len(got.Targets) != 0 {
		t.Errorf("moves = %v, targets = %v", got.Moves, got.Targets)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/moves?from=bogus", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("bad from: code %d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	body := `{"from":"0,0,0","to":"1,0,-1"}`

	if rec := do(t, h, http.MethodPost, "/api/v1/move", body, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: code %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/move", "", true); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on admin endpoint: code %d", rec.Code)
	}

	s.AdminKey = ""
	if rec := do(t, h, http.MethodPost, "/api/v1/move", body, true); rec.Code != http.StatusForbidden {
		t.Errorf("admin disabled: code %d", rec.Code)
	}
}

func TestMoveAndEndTurn(t *testing.T) {
	s := newTestServer(t)
	s.Game = game.New(s.Game.World(), 2, world.MovePolicy{})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/move", `{"from":"0,0,0","to":"1,0,-1"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: code %d: %s", rec.Code, rec.Body)
	}
	if tile, _ := s.Game.World().Get(hex.New(1, 0)); tile.Army == nil {
		t.Error("army did not arrive")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/move", `{"from":"1,0,-1","to":"1,1,-2"}`, true)
	if rec.Code != http.StatusConflict {
		t.Errorf("second move: code %d, want %d", rec.Code, http.StatusConflict)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/move", `{"from":"2,0,-2","to":"2,1,-3"}`, true)
	if rec.Code != http.StatusForbidden {
		t.Errorf("enemy army: code %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/endturn", "", true)
	if got := decode[map[string]any](t, rec); got["current_player"] != float64(1) {
		t.Errorf("endturn = %v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/history", "", false)
	if got := decode[[]game.Move](t, rec); len(got) != 1 || got[0].To != hex.New(1, 0) {
		t.Errorf("history = %v", got)
	}
}

func TestEdit(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/edit", `{"layer":"terrain","brush":"water","at":"-3,0,3"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: code %d: %s", rec.Code, rec.Body)
	}
	if tile, _ := s.Game.World().Get(hex.New(-3, 0)); tile.Terrain != world.Water {
		t.Errorf("terrain = %v", tile.Terrain)
	}

	center := s.Editor.Layout().CubeToPixel(hex.New(1, 1))
	body := `{"layer":"locality","brush":"airport","x":` + ftoa(center.X) + `,"y":` + ftoa(center.Y) + `}`
	if rec := do(t, h, http.MethodPost, "/api/v1/edit", body, true); rec.Code != http.StatusOK {
		t.Fatalf("pixel edit: code %d: %s", rec.Code, rec.Body)
	}
	if got := s.Game.World().WithLocality(world.Airport); len(got) != 1 || got[0] != hex.New(1, 1) {
		t.Errorf("airports = %v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/edit", `{"layer":"terrain","brush":"erase","at":"-3,0,3"}`, true)
	if rec.Code != http.StatusOK || s.Game.World().Has(hex.New(-3, 0)) {
		t.Errorf("erase: code %d, tile present %v", rec.Code, s.Game.World().Has(hex.New(-3, 0)))
	}

	for _, bad := range []string{
		`{"layer":"sky","brush":"cloud","at":"0,0,0"}`,
		`{"layer":"terrain","brush":"lava","at":"0,0,0"}`,
		`{"layer":"terrain","brush":"water"}`,
		`{"layer":"terrain","brush":"water","at":"0,0,0","size":4294967296}`,
		`{"layer":"terrain","brush":"water","at":"0,0,0","size":-1}`,
		`not json`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/v1/edit", bad, true); rec.Code != http.StatusBadRequest {
			t.Errorf("edit %s: code %d", bad, rec.Code)
		}
	}
	if err := s.Game.World().CheckIndices(); err != nil {
		t.Error(err)
	}
}

func TestSave(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	db, err := persistence.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()
	s.DB = db
	s.MapPath = filepath.Join(dir, "map.json")

	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/save", "", true); rec.Code != http.StatusOK {
		t.Fatalf("save: code %d: %s", rec.Code, rec.Body)
	}
	if !db.HasWorld() {
		t.Error("database has no world after save")
	}
	w, err := persistence.LoadMap(s.MapPath)
	if err != nil {
		t.Fatalf("LoadMap() failed: %v", err)
	}
	if w.Len() != s.Game.World().Len() {
		t.Errorf("saved map has %d tiles, want %d", w.Len(), s.Game.World().Len())
	}
}

func TestPreview(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/preview", "", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "@") {
		t.Errorf("preview: code %d body %q", rec.Code, rec.Body)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.RateLimit = 2
	h := s.Handler()
	defer s.limiter.Close()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/status", "", false); rec.Code != http.StatusOK {
			t.Fatalf("request %d: code %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/v1/status", "", false)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("third request: code %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || rl.Allow("a") {
		t.Fatal("limit of one not enforced")
	}
	if !rl.Allow("b") {
		t.Error("clients should not share a bucket")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("RetryAfter = %d, want 61", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("window did not reset")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Errorf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP with XFF = %q", got)
	}
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
