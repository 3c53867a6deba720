// Package game holds the turn logic: whose turn it is, which army is
// selected, and how a move is checked and applied to the world.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNotYourArmy = errors.New("not your army")
)

// Move is one applied army move.
type Move struct {
	Turn   int               `json:"turn"`
	Player world.PlayerIndex `json:"player"`
	From   hex.Cube          `json:"from"`
	To     hex.Cube          `json:"to"`
}

// Game tracks turn order over a world. The world itself stays safe for
// concurrent readers; the game's own state is guarded by mu.
type Game struct {
	world  *world.World
	policy world.MovePolicy

	mu       sync.Mutex
	players  int
	current  world.PlayerIndex
	turn     int
	selected *hex.Cube
	history  []Move
}

// New starts a game on w at turn 1 with player 0 to move. When players is
// less than one it is taken from the highest player index owning territory.
func New(w *world.World, players int, policy world.MovePolicy) *Game {
	if players < 1 {
		for _, p := range w.Players() {
			players = max(players, int(p)+1)
		}
		players = max(players, 1)
	}
	return &Game{
		world:   w,
		policy:  policy,
		players: players,
		turn:    1,
	}
}

func (g *Game) World() *world.World {
	return g.world
}

func (g *Game) Policy() world.MovePolicy {
	return g.policy
}

// Current returns the player whose turn it is.
func (g *Game) Current() world.PlayerIndex {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Turn returns the turn number, starting at 1.
func (g *Game) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Players returns the number of players taking turns.
func (g *Game) Players() int {
	return g.players
}

// Resume restores the turn counter and current player, e.g. after loading
// a saved game.
func (g *Game) Resume(current world.PlayerIndex, turn int) error {
	if int(current) < 0 || int(current) >= g.players {
		return fmt.Errorf("resume: player %d out of range [0,%d)", current, g.players)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = current
	g.turn = max(turn, 1)
	g.selected = nil
	return nil
}

// Select marks the army at c as selected and returns its legal moves. The
// army must belong to the current player.
func (g *Game) Select(c hex.Cube) ([]hex.Cube, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.world.Get(c)
	if !ok || t.Army == nil || t.Army.Owner != g.current {
		return nil, fmt.Errorf("select %v: %w", c, ErrNotYourArmy)
	}
	g.selected = &c
	return g.world.LegalMoves(c, g.current, g.policy), nil
}

// Selected returns the selected army's coordinate.
func (g *Game) Selected() (hex.Cube, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selected == nil {
		return hex.Cube{}, false
	}
	return *g.selected, true
}

func (g *Game) Deselect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = nil
}

// LegalMoves returns where the current player's army at src may move.
func (g *Game) LegalMoves(src hex.Cube) []hex.Cube {
	return g.world.LegalMoves(src, g.Current(), g.policy)
}

// AttackTargets returns hostile armies the current player's army at src
// could strike.
func (g *Game) AttackTargets(src hex.Cube) []hex.Cube {
	return g.world.AttackTargets(src, g.Current(), g.policy)
}

// Movable lists the current player's armies that can still move.
func (g *Game) Movable() []hex.Cube {
	return g.world.Movable(g.Current())
}

// MoveArmy moves the current player's army from src to dst. The move is
// checked and applied under one world write lock: the army leaves src,
// arrives at dst unable to move again this turn, and dst passes to the
// player.
func (g *Game) MoveArmy(src, dst hex.Cube) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.current
	err := g.world.Update(func(b *world.Batch) error {
		t, ok := b.Get(src)
		if !ok || t.Army == nil || t.Army.Owner != player {
			return fmt.Errorf("move from %v: %w", src, ErrNotYourArmy)
		}
		if !slices.Contains(b.LegalMoves(src, player, g.policy), dst) {
			return fmt.Errorf("move %v to %v: %w", src, dst, ErrIllegalMove)
		}
		a, _ := b.RemoveArmy(src)
		a.CanMove = false
		b.PlaceArmy(dst, a)
		b.SetOwnership(dst, world.Owner(player))
		return nil
	})
	if err != nil {
		return Move{}, err
	}

	m := Move{Turn: g.turn, Player: player, From: src, To: dst}
	g.history = append(g.history, m)
	g.selected = nil
	slog.Debug("army moved", "player", player, "from", src, "to", dst, "turn", g.turn)
	return m, nil
}

// EndTurn passes play to the next player and readies that player's armies.
// The turn counter advances when play wraps back to player 0.
func (g *Game) EndTurn() world.PlayerIndex {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current = world.PlayerIndex((int(g.current) + 1) % g.players)
	if g.current == 0 {
		g.turn++
	}
	g.selected = nil

	next := g.current
	g.world.Update(func(b *world.Batch) error {
		for _, c := range b.Armies(next) {
			b.Mutate(c, func(t *world.Tile) { t.Army.CanMove = true })
		}
		return nil
	})
	slog.Debug("turn ended", "next", next, "turn", g.turn)
	return next
}

// History returns the moves applied so far, oldest first.
func (g *Game) History() []Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.history)
}
